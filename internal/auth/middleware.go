// internal/auth/middleware.go
package auth

import (
	"context"
	"log"
	"net/http"
	"time"

	"quizmaker/internal/apperr"
	"quizmaker/internal/httpx"
	"quizmaker/internal/models"
)

type contextKey struct{}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type noopRevocations struct{}

func (noopRevocations) Revoke(context.Context, string, time.Time) error  { return nil }
func (noopRevocations) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// NoopRevocations is used when no revocation backend is configured.
var NoopRevocations RevocationStore = noopRevocations{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok && p != nil
}

// Authenticate resolves the caller of r. A nil principal means the request is
// unauthenticated, whatever the reason.
func Authenticate(r *http.Request, tokens *TokenManager, revoked RevocationStore) *Principal {
	raw := TokenFromRequest(r)
	if raw == "" {
		return nil
	}
	principal, ok := tokens.Verify(raw)
	if !ok {
		return nil
	}
	if principal.TokenID != "" {
		isRevoked, err := revoked.IsRevoked(r.Context(), principal.TokenID)
		if err != nil {
			log.Printf("Revocation lookup failed for token %s: %v", principal.TokenID, err)
			return nil
		}
		if isRevoked {
			return nil
		}
	}
	return principal
}

func Middleware(tokens *TokenManager, revoked RevocationStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := Authenticate(r, tokens, revoked)
			if principal == nil {
				httpx.WriteError(w, apperr.Unauthenticated("auth.Middleware"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole wraps h so only principals with role reach it.
func RequireRole(role models.Role, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok {
			httpx.WriteError(w, apperr.Unauthenticated("auth.RequireRole"))
			return
		}
		if principal.Role != role {
			httpx.WriteError(w, apperr.Forbidden("auth.RequireRole", "only %ss can perform this action", role))
			return
		}
		h(w, r)
	}
}
