// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
)

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// SuccessResponse is returned by endpoints without a body of their own.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ParseID parses a path or body identifier.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewFieldValidation(field, "invalid id").WithDetail("value", raw)
	}
	return v, nil
}

// DateRangeQuery is the ?from=&to= pair accepted by list and export endpoints.
// Dates are YYYY-MM-DD; to is inclusive for the caller and made exclusive here.
type DateRangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

func (q DateRangeQuery) Bounds() (from, to *time.Time, err error) {
	if q.From != "" {
		t, perr := time.Parse(time.DateOnly, q.From)
		if perr != nil {
			return nil, nil, apperror.NewFieldValidation("from", "expected YYYY-MM-DD")
		}
		from = &t
	}
	if q.To != "" {
		t, perr := time.Parse(time.DateOnly, q.To)
		if perr != nil {
			return nil, nil, apperror.NewFieldValidation("to", "expected YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, nil
}
