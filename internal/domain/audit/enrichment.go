// Package audit defines how domain services report changes to the audit trail.
package audit

import (
	"context"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/core/id"
)

// Action is the kind of audited change.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionConsolidate Action = "consolidate"
	ActionPayment     Action = "payment"
	ActionDebt        Action = "debt"
)

// Recorder stores the difference between two states of a record.
// Called inside the transaction that made the change.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, before, after any) error
}

// Nop discards changes.
type Nop struct{}

func (Nop) LogChange(context.Context, string, id.ID, Action, any, any) error { return nil }

// Actor returns the caller's user id for created_by columns, or "system".
func Actor(ctx context.Context) string {
	if uid := appctx.GetUserID(ctx); uid != "" {
		return uid
	}
	return "system"
}
