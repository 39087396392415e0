// Package auth verifies access tokens against the hosted auth platform
// and threads the resulting identity through request contexts.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as the auth platform reports it.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Verifier resolves a bearer access token into an identity.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (*Identity, error)
}

type contextKey int

const identityKey contextKey = 0

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
