package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/domain/expense"
	"shopledger/internal/infrastructure/storage/postgres"
)

const expenseTable = "expenses"

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct {
	*BaseRepo[*expense.Expense]
}

var _ expense.Repository = (*ExpenseRepo)(nil)

func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		BaseRepo: NewBaseRepo(
			txManager,
			expenseTable,
			"expense",
			postgres.ExtractDBColumns[expense.Expense](),
			func() *expense.Expense { return &expense.Expense{} },
		),
	}
}

func (r *ExpenseRepo) Update(ctx context.Context, e *expense.Expense) error {
	return r.update(ctx, e, func(version int, updatedAt time.Time) {
		e.Version = version
		e.UpdatedAt = updatedAt
	})
}

func (r *ExpenseRepo) listQuery(filter expense.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect().OrderBy("expense_date DESC", "created_at DESC")
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"expense_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"expense_date": *filter.To})
	}
	return q
}

// List returns expenses by date, newest first.
func (r *ExpenseRepo) List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	return r.FindMany(ctx, r.listQuery(filter))
}
