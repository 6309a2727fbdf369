// Package auth implements stateless bearer-token authentication and
// role-based authorization for the HTTP API.
package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge/internal/models"
)

// Principal represents the authenticated caller for the duration of one
// request. It is constructed by the authentication middleware from a validated
// token subject and an account lookup, attached to the request context, and
// discarded when the request completes. It is never persisted.
type Principal struct {
	ID    uuid.UUID
	Login string
	Role  models.Role
}

// IsAdmin returns true if the principal holds the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type contextKey int

const principalContextKey contextKey = iota

// PrincipalFromContext extracts the authenticated principal from the request
// context. Returns nil if no principal is present (anonymous request).
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey).(*Principal)
	return principal
}

// ContextWithPrincipal returns a child context carrying the principal.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
