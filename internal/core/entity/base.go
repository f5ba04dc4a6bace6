// Package entity holds fields shared by every persisted record.
package entity

import (
	"context"
	"time"

	"shopledger/internal/core/id"
)

// Validatable is implemented by records that check their own invariants
// before they are written.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity is embedded by products, sales, expenses and users.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking, bumped by the repository on each update
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity stamps a fresh id and timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the modification timestamp.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}
