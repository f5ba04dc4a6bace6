// Package export renders ledger records as XLSX workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/reports"
	"shopledger/internal/domain/sales"
)

const (
	SalesSheet    = "Sales"
	ItemsSheet    = "Items"
	ExpensesSheet = "Expenses"

	timestampLayout = "2006-01-02 15:04"
)

var (
	salesHeader = []any{
		"Invoice", "Date", "Customer", "Phone", "Payment Method", "Status",
		"Subtotal", "Tax", "Total", "Amount Paid", "Remaining",
	}
	itemsHeader    = []any{"Invoice", "Product", "Quantity", "Price", "Line Total"}
	expensesHeader = []any{"Date", "Description", "Category", "Amount", "Notes"}
)

// XLSX implements reports.Renderer.
type XLSX struct{}

var _ reports.Renderer = XLSX{}

func (XLSX) Sales(saleList []*sales.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, err
	}

	w := newSheetWriter(f, SalesSheet)
	w.row(salesHeader)
	for _, s := range saleList {
		w.row([]any{
			s.InvoiceID,
			s.CreatedAt.UTC().Format(timestampLayout),
			s.CustomerName,
			s.CustomerPhone,
			string(s.PaymentMethod),
			string(s.Status),
			amount(s.Subtotal),
			amount(s.Tax),
			amount(s.Total),
			amount(s.AmountPaid),
			amount(s.RemainingBalance),
		})
	}

	items := newSheetWriter(f, ItemsSheet)
	items.row(itemsHeader)
	for _, s := range saleList {
		for _, it := range s.Items {
			items.row([]any{s.InvoiceID, it.Name, it.Quantity, amount(it.Price), amount(it.Total)})
		}
	}

	if err := firstErr(w.err, items.err); err != nil {
		return nil, err
	}
	if err := styleHeader(f, SalesSheet, len(salesHeader)); err != nil {
		return nil, err
	}
	if err := styleHeader(f, ItemsSheet, len(itemsHeader)); err != nil {
		return nil, err
	}
	return write(f)
}

func (XLSX) Expenses(expenses []*expense.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return nil, err
	}

	w := newSheetWriter(f, ExpensesSheet)
	w.row(expensesHeader)
	for _, e := range expenses {
		w.row([]any{
			e.Date.Format(time.DateOnly),
			e.Description,
			string(e.Category),
			amount(e.Amount),
			e.Notes,
		})
	}
	if w.err != nil {
		return nil, w.err
	}
	if err := styleHeader(f, ExpensesSheet, len(expensesHeader)); err != nil {
		return nil, err
	}
	return write(f)
}

// sheetWriter appends rows and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func newSheetWriter(f *excelize.File, sheet string) *sheetWriter {
	return &sheetWriter{f: f, sheet: sheet, next: 1}
}

func (w *sheetWriter) row(values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", w.sheet, w.next, err)
		return
	}
	w.next++
}

func styleHeader(f *excelize.File, sheet string, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func write(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// amount renders money as a number cell so spreadsheets can sum it.
func amount(m types.Money) float64 {
	return m.Round(2).InexactFloat64()
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
