package sales

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
)

// Repository is the Ledger Store.
type Repository interface {
	Create(ctx context.Context, sale *Sale) error

	// GetByID returns apperror NotFound when absent.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate is GetByID that also locks the row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// Update replaces the mutable fields when the stored version equals
	// sale.Version, then bumps sale.Version. A mismatch is apperror ConcurrentModification.
	Update(ctx context.Context, sale *Sale) error

	List(ctx context.Context, filter ListFilter) ([]*Sale, error)

	// FindLatestOpenByCustomer returns the newest PartialPayment sale whose
	// customer name equals name exactly, or nil when there is none.
	FindLatestOpenByCustomer(ctx context.Context, name string) (*Sale, error)

	// LockCustomer serializes checkouts for one customer name until the
	// surrounding transaction ends.
	LockCustomer(ctx context.Context, name string) error
}

// Inventory is the part of the product catalog a sale touches.
type Inventory interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
	DecrementStock(ctx context.Context, productID id.ID, quantity int, allowNegative bool) (*product.Product, error)
}

var _ Inventory = (product.Repository)(nil)

// Journal receives every committed change: it writes the audit trail and
// queues integration events. It runs inside the sale's transaction.
type Journal interface {
	SaleChanged(ctx context.Context, change Change) error
	StockLow(ctx context.Context, p *product.Product) error
}

// NopJournal drops everything.
type NopJournal struct{}

func (NopJournal) SaleChanged(context.Context, Change) error { return nil }
func (NopJournal) StockLow(context.Context, *product.Product) error { return nil }
