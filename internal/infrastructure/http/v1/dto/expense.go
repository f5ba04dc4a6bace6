package dto

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/expense"
)

type CreateExpenseRequest struct {
	Description string           `json:"description" binding:"required"`
	Amount      types.Money      `json:"amount"`
	Category    expense.Category `json:"category" binding:"required"`
	Date        string           `json:"date" binding:"required"`
	Notes       string           `json:"notes"`
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		// Full timestamps are accepted and truncated to the day.
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return time.Time{}, apperror.NewFieldValidation(field, "expected YYYY-MM-DD").WithDetail("value", raw)
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t, nil
}

func (r *CreateExpenseRequest) ToDomain() (*expense.Expense, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	return expense.NewExpense(r.Description, r.Amount, r.Category, date, r.Notes), nil
}

type UpdateExpenseRequest struct {
	Description *string           `json:"description"`
	Amount      *types.Money      `json:"amount"`
	Category    *expense.Category `json:"category"`
	Date        *string           `json:"date"`
	Notes       *string           `json:"notes"`
	Version     *int              `json:"version"`
}

func (r *UpdateExpenseRequest) ToDomain() (expense.UpdateInput, error) {
	in := expense.UpdateInput{
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
		Notes:       r.Notes,
		Version:     r.Version,
	}
	if r.Date != nil {
		date, err := parseDate("date", *r.Date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	}
	return in, nil
}

type ExpenseListQuery struct {
	DateRangeQuery
	Category string `form:"category"`
}

func (q ExpenseListQuery) ToFilter() (expense.ListFilter, error) {
	from, to, err := q.Bounds()
	if err != nil {
		return expense.ListFilter{}, err
	}
	return expense.ListFilter{Category: expense.Category(q.Category), From: from, To: to}, nil
}

// ExpenseListResponse adds the sum of the listed amounts.
type ExpenseListResponse struct {
	ListResponse[*expense.Expense]
	TotalAmount types.Money `json:"totalAmount"`
}

func NewExpenseListResponse(items []*expense.Expense) ExpenseListResponse {
	total := types.Zero()
	for _, e := range items {
		total = total.Add(e.Amount)
	}
	return ExpenseListResponse{ListResponse: NewListResponse(items), TotalAmount: total}
}
