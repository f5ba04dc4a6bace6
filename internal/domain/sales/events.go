package sales

import (
	"shopledger/internal/domain/audit"
)

// Event types queued for integrations.
const (
	EventSaleCreated      = "sale.created"
	EventSaleConsolidated = "sale.consolidated"
	EventPaymentApplied   = "sale.payment_applied"
	EventDebtAdded        = "sale.debt_added"
	EventStockLow         = "product.stock_low"
)

// Change describes one committed mutation of a sale.
type Change struct {
	Action audit.Action
	Event  string
	Before *Sale // nil on creation
	After  *Sale
}

// EventPayload is the body of sale events.
type EventPayload struct {
	SaleID           string `json:"saleId"`
	InvoiceID        string `json:"invoiceId"`
	CustomerName     string `json:"customerName"`
	Total            string `json:"total"`
	AmountPaid       string `json:"amountPaid"`
	RemainingBalance string `json:"remainingBalance"`
	Status           Status `json:"status"`
	Version          int    `json:"version"`
}

// Payload renders the event body for the sale after the change.
func (c Change) Payload() EventPayload {
	s := c.After
	return EventPayload{
		SaleID:           s.ID.String(),
		InvoiceID:        s.InvoiceID,
		CustomerName:     s.CustomerName,
		Total:            s.Total.StringFixed(2),
		AmountPaid:       s.AmountPaid.StringFixed(2),
		RemainingBalance: s.RemainingBalance.StringFixed(2),
		Status:           s.Status,
		Version:          s.Version,
	}
}
