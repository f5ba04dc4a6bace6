// Package id provides identifiers for products, sales, expenses and users.
// Identifiers are UUIDv7, so they sort by creation time.
package id

import (
	"github.com/google/uuid"
)

type ID = uuid.UUID

// New generates a UUIDv7, falling back to v4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse panics on malformed input. Tests and constants only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}
