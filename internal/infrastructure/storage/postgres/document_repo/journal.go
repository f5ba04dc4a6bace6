package document_repo

import (
	"context"
	"fmt"

	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/storage/postgres"
)

// EventPublisher queues integration events in the current transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event postgres.DomainEvent) error
}

// SaleJournal implements sales.Journal on top of the audit trail and the outbox.
type SaleJournal struct {
	audit  audit.Recorder
	events EventPublisher
}

var _ sales.Journal = (*SaleJournal)(nil)

func NewSaleJournal(recorder audit.Recorder, events EventPublisher) *SaleJournal {
	return &SaleJournal{audit: recorder, events: events}
}

func (j *SaleJournal) SaleChanged(ctx context.Context, change sales.Change) error {
	var before any
	if change.Before != nil {
		before = change.Before
	}
	if err := j.audit.LogChange(ctx, "sale", change.After.ID, change.Action, before, change.After); err != nil {
		return fmt.Errorf("audit sale: %w", err)
	}

	return j.events.Publish(ctx, postgres.DomainEvent{
		AggregateType: "sale",
		AggregateID:   change.After.ID,
		EventType:     change.Event,
		Payload:       change.Payload(),
	})
}

// StockLowPayload is the body of product.stock_low events.
type StockLowPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"minStock"`
}

func (j *SaleJournal) StockLow(ctx context.Context, p *product.Product) error {
	return j.events.Publish(ctx, postgres.DomainEvent{
		AggregateType: "product",
		AggregateID:   p.ID,
		EventType:     sales.EventStockLow,
		Payload: StockLowPayload{
			ProductID: p.ID.String(),
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
		},
	})
}
