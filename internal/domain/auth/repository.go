package auth

import (
	"context"

	"shopledger/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create returns apperror Duplicate when the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByID returns apperror NotFound when absent.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail looks up a normalized email. NotFound when absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update writes login bookkeeping with a version check.
	Update(ctx context.Context, user *User) error

	// Exists checks if email is registered.
	Exists(ctx context.Context, email string) (bool, error)
}
