// Package context carries request-scoped identity and tracing values.
package context

import (
	"context"
)

// Role names understood by the authorization middleware.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserContext is the authenticated caller of the current request.
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// IsAdmin reports whether the caller may change the catalog and expenses.
func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context, or nil for anonymous calls.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRole checks the caller's role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}
