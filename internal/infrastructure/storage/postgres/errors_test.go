package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert users: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	constraint, ok := IsUniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", constraint)

	_, ok = IsUniqueViolation(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestIsCheckViolation(t *testing.T) {
	_, ok := IsCheckViolation(&pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check"})
	assert.True(t, ok)
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23514"}))
}
