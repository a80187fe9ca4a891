package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jason-s-yu/trustless-rewards/internal/auth"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

type callerKey struct{}

// Caller resolves the calling principal from an "auth_token" cookie or a
// bearer token and stores it on the request context. Requests without a
// valid token pass through unauthenticated; handlers decide what to do.
func Caller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token != "" {
			if p, err := auth.AuthenticateJWT(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), callerKey{}, p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFrom returns the principal attached by Caller.
func CallerFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(callerKey{}).(models.Principal)
	return p, ok && p != ""
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		return c.Value
	}
	return ""
}
