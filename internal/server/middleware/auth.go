// Package middleware holds the HTTP middleware chain: principal extraction,
// request logging, panic recovery and rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nfaria/cofre/internal/server/handlers"
)

// AuthMiddleware extracts the session token from the Authorization header
// and annotates the request context with the caller's identity. It never
// rejects: public routes share the chain, and protected handlers enforce
// their own identity requirement. The raw token is kept alongside so
// mutations can be forwarded to the backup under the caller's credential.
func AuthMiddleware(logger *slog.Logger, tokens handlers.TokenConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identityID := handlers.UnauthenticatedID
			rawToken := ""

			authHeader := r.Header.Get("Authorization")
			if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				claims, err := handlers.ValidateSessionToken(tokens, parts[1])
				if err != nil {
					logger.Warn("invalid session token", "error", err)
				} else {
					identityID = claims.IdentityID
					rawToken = parts[1]
				}
			}

			ctx := context.WithValue(r.Context(), handlers.IdentityIDKey, identityID)
			ctx = context.WithValue(ctx, handlers.RawTokenKey, rawToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
