// Package reports builds downloadable exports of the ledger.
package reports

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
	"shopledger/pkg/logger"
)

// Service provides report generation operations.
type Service struct {
	sales    SaleSource
	expenses ExpenseSource
	renderer Renderer
	now      func() time.Time
}

func NewService(saleSrc SaleSource, expenseSrc ExpenseSource, renderer Renderer) *Service {
	return &Service{
		sales:    saleSrc,
		expenses: expenseSrc,
		renderer: renderer,
		now:      time.Now,
	}
}

// SalesWorkbook exports sales created in the period, newest first.
func (s *Service) SalesWorkbook(ctx context.Context, period Period) (*Workbook, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	saleList, err := s.sales.List(ctx, sales.ListFilter{
		From:  period.From,
		To:    period.To,
		Limit: MaxExportRows + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	if len(saleList) > MaxExportRows {
		return nil, tooManyRows("sales")
	}

	content, err := s.renderer.Sales(saleList)
	if err != nil {
		return nil, fmt.Errorf("render sales: %w", err)
	}

	logger.Info(ctx, "sales export rendered", "rows", len(saleList), "bytes", len(content))
	return s.workbook("sales", content), nil
}

// ExpensesWorkbook exports expenses dated in the period.
func (s *Service) ExpensesWorkbook(ctx context.Context, period Period) (*Workbook, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	expenses, err := s.expenses.List(ctx, expense.ListFilter{From: period.From, To: period.To})
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	if len(expenses) > MaxExportRows {
		return nil, tooManyRows("expenses")
	}

	content, err := s.renderer.Expenses(expenses)
	if err != nil {
		return nil, fmt.Errorf("render expenses: %w", err)
	}
	return s.workbook("expenses", content), nil
}

func (s *Service) workbook(kind string, content []byte) *Workbook {
	return &Workbook{
		Filename:    fmt.Sprintf("%s-%s.xlsx", kind, s.now().Format("20060102-150405")),
		ContentType: ContentTypeXLSX,
		Content:     content,
	}
}

func tooManyRows(kind string) error {
	return apperror.NewValidation("export too large, narrow the date range").
		WithDetail("kind", kind).
		WithDetail("max_rows", MaxExportRows)
}
