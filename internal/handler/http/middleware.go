package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/avocadohq/marketplace/internal/models"
)

type contextKey int

const (
	contextKeyIdentity contextKey = iota
)

// TokenVerifier validates bearer tokens issued by the external auth service
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// Auth extracts the bearer token, verifies it and puts the caller's
// identity into the request context
func Auth(tv TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := tv.VerifyToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyIdentity, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFromContext extracts the verified caller identity
func identityFromContext(ctx context.Context) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(contextKeyIdentity).(*models.TokenPayload)
	return payload, ok
}
