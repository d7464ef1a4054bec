package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
)

const (
	msgMissingCredential   = "missing credential"
	msgMalformedCredential = "malformed credential"
	msgInvalidCredential   = "invalid or expired credential"
)

type contextKey string

// IdentityKey is the context key for the verified identity.
const IdentityKey = contextKey("identity")

// Verifier turns a raw bearer token into a verified identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext returns the identity attached by Middleware.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*Identity)
	return id, ok && id != nil
}

// Middleware creates a middleware for protecting routes. A request without an
// Authorization header or with a non-Bearer scheme is rejected with 401; a
// bearer token that fails verification is rejected with 403.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				reject(w, http.StatusUnauthorized, msgMissingCredential)
				return
			}

			tokenStr, ok := bearerToken(header)
			if !ok {
				reject(w, http.StatusUnauthorized, msgMalformedCredential)
				return
			}

			id, err := v.Verify(tokenStr)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("Rejected bearer token")
				reject(w, http.StatusForbidden, msgInvalidCredential)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
