package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
)

func open(t *testing.T, content []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestXLSX_Sales(t *testing.T) {
	s := &sales.Sale{
		BaseEntity:       entity.NewBaseEntity(),
		InvoiceID:        "INV-0042",
		CustomerName:     "Ada",
		PaymentMethod:    sales.PaymentHalfPayment,
		Status:           sales.StatusPartialPayment,
		Subtotal:         types.MustMoney("40.5"),
		Tax:              types.Zero(),
		Total:            types.MustMoney("40.5"),
		AmountPaid:       types.MustMoney("10"),
		RemainingBalance: types.MustMoney("30.5"),
		Items: []sales.Item{
			{ProductID: id.New(), Name: "CR2032", Quantity: 3, Price: types.MustMoney("2.5"), Total: types.MustMoney("7.5")},
			{ProductID: id.New(), Name: "Blade", Quantity: 1, Price: types.MustMoney("33"), Total: types.MustMoney("33")},
		},
	}
	s.CreatedAt = time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)

	content, err := XLSX{}.Sales([]*sales.Sale{s})
	require.NoError(t, err)

	f := open(t, content)
	assert.Equal(t, []string{SalesSheet, ItemsSheet}, f.GetSheetList())

	rows, err := f.GetRows(SalesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Invoice", rows[0][0])
	assert.Equal(t, []string{
		"INV-0042", "2026-02-03 09:30", "Ada", "", "Half Payment", "Partial Payment",
		"40.5", "0", "40.5", "10", "30.5",
	}, rows[1])

	items, err := f.GetRows(ItemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"INV-0042", "CR2032", "3", "2.5", "7.5"}, items[1])
	assert.Equal(t, []string{"INV-0042", "Blade", "1", "33", "33"}, items[2])
}

func TestXLSX_Expenses(t *testing.T) {
	e := expense.NewExpense("Shop rent", types.MustMoney("500"), expense.CategoryRentUtilities,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "March")

	content, err := XLSX{}.Expenses([]*expense.Expense{e})
	require.NoError(t, err)

	rows, err := open(t, content).GetRows(ExpensesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2026-03-01", "Shop rent", string(expense.CategoryRentUtilities), "500", "March"}, rows[1])
}

func TestXLSX_EmptyHasHeaderOnly(t *testing.T) {
	content, err := XLSX{}.Sales(nil)
	require.NoError(t, err)

	rows, err := open(t, content).GetRows(ItemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(itemsHeader))
}
