// Package expense records money leaving the shop. Expenses only feed profit figures.
package expense

import (
	"context"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Category is one of a fixed set of expense groups.
type Category string

const (
	CategoryRentUtilities  Category = "Rent & Utilities"
	CategorySalariesWages  Category = "Salaries & Wages"
	CategoryInventory      Category = "Inventory & Supplies"
	CategoryMarketing      Category = "Marketing & Advertising"
	CategoryEquipment      Category = "Equipment & Maintenance"
	CategoryInsuranceLegal Category = "Insurance & Legal"
	CategoryTransportation Category = "Transportation"
	CategoryMiscellaneous  Category = "Miscellaneous"
)

var Categories = []Category{
	CategoryRentUtilities, CategorySalariesWages, CategoryInventory, CategoryMarketing,
	CategoryEquipment, CategoryInsuranceLegal, CategoryTransportation, CategoryMiscellaneous,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is one outflow entry.
type Expense struct {
	entity.BaseEntity

	Description string      `db:"description" json:"description"`
	Amount      types.Money `db:"amount" json:"amount"`
	Category    Category    `db:"category" json:"category"`
	Date        time.Time   `db:"expense_date" json:"date"`
	Notes       string      `db:"notes" json:"notes,omitempty"`
	CreatedBy   string      `db:"created_by" json:"createdBy,omitempty"`
}

func NewExpense(description string, amount types.Money, category Category, date time.Time, notes string) *Expense {
	return &Expense{
		BaseEntity:  entity.NewBaseEntity(),
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    category,
		Date:        date,
		Notes:       strings.TrimSpace(notes),
	}
}

func (e *Expense) GetID() id.ID    { return e.ID }
func (e *Expense) GetVersion() int { return e.Version }

func (e *Expense) Clone() *Expense {
	c := *e
	return &c
}

func (e *Expense) Validate(_ context.Context) error {
	if strings.TrimSpace(e.Description) == "" {
		return apperror.NewFieldValidation("description", "description is required")
	}
	if !e.Amount.IsPositive() {
		return apperror.NewFieldValidation("amount", "amount must be positive")
	}
	if !e.Category.IsValid() {
		return apperror.NewFieldValidation("category", "unknown category").WithDetail("value", e.Category)
	}
	if e.Date.IsZero() {
		return apperror.NewFieldValidation("date", "date is required")
	}
	return nil
}

// ListFilter narrows List. Results are ordered by date, newest first.
type ListFilter struct {
	Category Category
	From     *time.Time // inclusive
	To       *time.Time // exclusive
}

// Matches applies the filter to one expense. In-memory stores use it.
func (f ListFilter) Matches(e *Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.Date.Before(*f.To) {
		return false
	}
	return true
}
