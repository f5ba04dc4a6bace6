// Package auth_repo provides the PostgreSQL user store.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/auth"
	"shopledger/internal/infrastructure/storage/postgres"
)

const userColumns = `id, name, email, password_hash, role, is_active,
	last_login_at, failed_login_attempts, locked_until,
	version, created_at, updated_at`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

var _ auth.UserRepository = (*UserRepo)(nil)

func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO users (
			id, name, email, password_hash, role, is_active,
			failed_login_attempts, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := q.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive,
		user.FailedLoginAttempts, user.Version, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if _, ok := postgres.IsUniqueViolation(err); ok {
			return apperror.NewDuplicate("user", "email", user.Email).WithCause(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID, userID.String())
}

// GetByEmail retrieves user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any, key string) (*auth.User, error) {
	q := r.txManager.GetQuerier(ctx)

	var user auth.User
	err := q.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsActive,
		&user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
		&user.Version, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// Update writes profile and login bookkeeping.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE users SET
			name = $2,
			role = $3,
			is_active = $4,
			last_login_at = $5,
			failed_login_attempts = $6,
			locked_until = $7,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $8
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		user.ID, user.Name, user.Role, user.IsActive,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
		user.Version,
	).Scan(&user.Version, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification("user", user.ID.String())
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// Exists checks if email is registered.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	q := r.txManager.GetQuerier(ctx)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}
