package expense

import (
	"context"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
	"shopledger/internal/domain/audit"
)

// Repository stores expenses.
type Repository interface {
	domain.RecordRepository[*Expense, ListFilter]
}

type Service struct {
	*domain.RecordService[*Expense, ListFilter]
}

func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Expense, ListFilter]{
		Repo:       repo,
		TxManager:  txManager,
		Audit:      recorder,
		Clone:      (*Expense).Clone,
		EntityName: "expense",
	})
	base.Hooks().On(domain.BeforeCreate, func(ctx context.Context, e *Expense) error {
		if e.CreatedBy == "" {
			e.CreatedBy = audit.Actor(ctx)
		}
		return nil
	})
	return &Service{RecordService: base}
}

// UpdateInput carries a partial edit. Nil fields are left unchanged.
type UpdateInput struct {
	Description *string
	Amount      *types.Money
	Category    *Category
	Date        *time.Time
	Notes       *string
	Version     *int
}

func (s *Service) Edit(ctx context.Context, expenseID id.ID, in UpdateInput) (*Expense, error) {
	return s.Update(ctx, expenseID, in.Version, func(e *Expense) error {
		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.Amount != nil {
			e.Amount = *in.Amount
		}
		if in.Category != nil {
			e.Category = *in.Category
		}
		if in.Date != nil {
			e.Date = *in.Date
		}
		if in.Notes != nil {
			e.Notes = *in.Notes
		}
		return nil
	})
}

// Total sums the amounts of expenses matching filter.
func (s *Service) Total(ctx context.Context, filter ListFilter) (types.Money, error) {
	items, err := s.List(ctx, filter)
	if err != nil {
		return types.Zero(), err
	}
	total := types.Zero()
	for _, e := range items {
		total = total.Add(e.Amount)
	}
	return total, nil
}
