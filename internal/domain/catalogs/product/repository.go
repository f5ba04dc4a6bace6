package product

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
)

// Repository is the Inventory Store.
type Repository interface {
	domain.RecordRepository[*Product, ListFilter]

	// DecrementStock atomically subtracts quantity from stock, refreshes
	// status and returns the updated product. With allowNegative false the
	// decrement fails with apperror InsufficientStock instead of going below zero.
	DecrementStock(ctx context.Context, productID id.ID, quantity int, allowNegative bool) (*Product, error)
}
