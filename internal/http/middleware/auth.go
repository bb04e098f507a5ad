package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/iago/civic-issues-back/internal/auth"
	"github.com/iago/civic-issues-back/internal/domain"
)

const principalContextKey contextKey = "principal"

// Auth resolves the bearer token into a principal and stores it on the request
// context. Requests without a resolvable principal never reach next.
func Auth(resolver auth.Resolver, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, r)
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrPrincipalNotFound):
				writeUnauthorized(w, r)
				return
			default:
				if logger != nil {
					logger.Printf("principal resolution failed request_id=%s err=%v", GetRequestID(r.Context()), err)
				}
				w.Header().Set("Retry-After", "1")
				WriteError(w, r, http.StatusServiceUnavailable, "source_unavailable", "credential store unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the principal stored by Auth.
func PrincipalFromContext(ctx context.Context) (domain.PrincipalRecord, bool) {
	principal, ok := ctx.Value(principalContextKey).(domain.PrincipalRecord)
	return principal, ok
}

// WithPrincipal is used by tests and in-process callers that bypass Auth.
func WithPrincipal(ctx context.Context, principal domain.PrincipalRecord) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
}
