// Package middleware contains HTTP middleware for the booking service.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/auth"
	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/handler"
)

// AdminChecker answers admin-membership lookups. *repository.Store
// satisfies it.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AuthMiddleware resolves bearer tokens into identities and gates
// admin-only routes.
type AuthMiddleware struct {
	verifier auth.Verifier
	admins   AdminChecker
	logger   *slog.Logger
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(verifier auth.Verifier, admins AdminChecker, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		admins:   admins,
		logger:   logger,
	}
}

// bearerToken extracts the token from the Authorization header, or "".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// WithIdentity resolves the bearer token, if present, and stores the
// identity in the request context. Requests without a token pass
// through unauthenticated.
func (m *AuthMiddleware) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			// An invalid token is treated as anonymous; gated
			// routes reject further down.
			m.logger.Info("token verification failed", "path", r.URL.Path, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// RequireIdentity rejects requests without a verified identity.
func (m *AuthMiddleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFromContext(r.Context()); !ok {
			handler.ErrorResponse(w, r, m.logger,
				domain.Unauthorized("", "Authentication required."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects identities outside the admin set. Must run after
// RequireIdentity.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			handler.ErrorResponse(w, r, m.logger,
				domain.Unauthorized("", "Authentication required."))
			return
		}

		isAdmin, err := m.admins.IsAdmin(r.Context(), identity.UserID)
		if err != nil {
			handler.ErrorResponse(w, r, m.logger,
				domain.Internal(err, "middleware.require_admin", err.Error()))
			return
		}
		if !isAdmin {
			handler.ErrorResponse(w, r, m.logger,
				domain.Forbidden("", "Admin access required."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stack composes middleware; the first argument is the outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
