package reports

import (
	"context"

	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
)

type SaleSource interface {
	List(ctx context.Context, filter sales.ListFilter) ([]*sales.Sale, error)
}

type ExpenseSource interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
}

// Renderer turns records into a spreadsheet file.
type Renderer interface {
	Sales(saleList []*sales.Sale) ([]byte, error)
	Expenses(expenses []*expense.Expense) ([]byte, error)
}
