// Package sales records checkouts and folds later purchases and payments
// into a customer's open tab.
package sales

import (
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// DefaultCustomerName is used when the till leaves the customer blank.
// The name is the only customer identity: open tabs are matched on it exactly.
const DefaultCustomerName = "Walk-in Customer"

// Status of a sale.
type Status string

const (
	StatusCompleted      Status = "Completed"
	StatusPartialPayment Status = "Partial Payment"

	// Declared for the wire format; nothing produces them yet.
	StatusPending   Status = "Pending"
	StatusCancelled Status = "Cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPartialPayment, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how the customer paid at checkout.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "Cash"
	PaymentDebitCard   PaymentMethod = "Debit Card"
	PaymentHalfPayment PaymentMethod = "Half Payment"
	PaymentTransfer    PaymentMethod = "Transfer"
)

var paymentMethods = map[string]PaymentMethod{
	"cash":        PaymentCash,
	"debitcard":   PaymentDebitCard,
	"halfpayment": PaymentHalfPayment,
	"transfer":    PaymentTransfer,
}

// ParsePaymentMethod accepts the display names and their compact forms,
// ignoring case, spaces and underscores ("Debit Card", "debit_card", "DebitCard").
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	if m, ok := paymentMethods[key]; ok {
		return m, nil
	}
	return "", apperror.NewFieldValidation("paymentMethod", "unknown payment method").WithDetail("value", s)
}

// Item is a sale line. Lines are keyed by ProductID: a product appears at most once per sale.
type Item struct {
	ProductID id.ID       `json:"productId"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Price     types.Money `json:"price"`
	Total     types.Money `json:"total"`
}

// Sale is one invoice, possibly amended by later reconciliations.
type Sale struct {
	entity.BaseEntity

	InvoiceID     string `db:"invoice_id" json:"invoiceId"`
	CustomerName  string `db:"customer_name" json:"customerName"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone,omitempty"`

	// Stored as a JSONB array in insertion order
	Items []Item `db:"items" json:"items"`

	Subtotal         types.Money   `db:"subtotal" json:"subtotal"`
	Tax              types.Money   `db:"tax" json:"tax"`
	Total            types.Money   `db:"total" json:"total"`
	PaymentMethod    PaymentMethod `db:"payment_method" json:"paymentMethod"`
	AmountPaid       types.Money   `db:"amount_paid" json:"amountPaid"`
	RemainingBalance types.Money   `db:"remaining_balance" json:"remainingBalance"`
	Status           Status        `db:"status" json:"status"`

	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
}

// IsOpen reports whether the sale is a tab that can still be reconciled.
func (s *Sale) IsOpen() bool {
	return s.Status == StatusPartialPayment
}

// Clone deep-copies the sale, including its lines.
func (s *Sale) Clone() *Sale {
	c := *s
	c.Items = append([]Item(nil), s.Items...)
	return &c
}

// UnitsSold sums line quantities.
func (s *Sale) UnitsSold() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// NormalizeCustomerName trims the name and substitutes DefaultCustomerName for blanks.
// Case is preserved: "ada" and "Ada" are different customers.
func NormalizeCustomerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultCustomerName
	}
	return name
}

// ListFilter narrows List. Results are newest first.
type ListFilter struct {
	Status       Status
	CustomerName string
	From         *time.Time // inclusive, on CreatedAt
	To           *time.Time // exclusive
	Limit        int        // 0 = no limit
}

// Matches applies the filter to one sale, ignoring Limit.
func (f ListFilter) Matches(s *Sale) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.CustomerName != "" && s.CustomerName != f.CustomerName {
		return false
	}
	if f.From != nil && s.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}
