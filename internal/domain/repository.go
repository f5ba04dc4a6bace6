// Package domain holds the building blocks shared by the catalog and expense services.
package domain

import (
	"context"

	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
)

// Record is a persisted entity managed by RecordService.
type Record interface {
	entity.Validatable
	GetID() id.ID
	GetVersion() int
}

// RecordRepository is the storage contract of a RecordService.
// F is the list filter type of the record.
type RecordRepository[T Record, F any] interface {
	Create(ctx context.Context, record T) error

	// GetByID returns apperror NotFound when absent.
	GetByID(ctx context.Context, id id.ID) (T, error)

	// Update writes the record when its stored version equals record's version,
	// then bumps the version. A mismatch is apperror ConcurrentModification.
	Update(ctx context.Context, record T) error

	// Delete removes the row permanently.
	Delete(ctx context.Context, id id.ID) error

	List(ctx context.Context, filter F) ([]T, error)
}

// HookEvent is a lifecycle point.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	BeforeDelete HookEvent = "before_delete"
)

// Hook runs at a lifecycle point. Before-hooks may reject the operation.
type Hook[T any] func(ctx context.Context, record T) error

// HookRegistry stores lifecycle hooks for one record type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers hook for event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks for event in registration order, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, record T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
