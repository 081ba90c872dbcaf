package middleware

import (
	"context"
	"net/http"
	"strings"

	"kudi/internal/domain/session"
	"kudi/internal/shared/auth"
)

type ContextKey string

const IdentityKey ContextKey = "identity"

// SessionCookie holds the session token for browser requests.
const SessionCookie = "session_token"

// TokenVerifier validates an upstream identity-provider token (a Firebase
// ID token) and resolves the identity behind it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*session.Identity, error)
}

// IdentityFrom extracts the authenticated identity from a request context.
func IdentityFrom(ctx context.Context) *session.Identity {
	id, _ := ctx.Value(IdentityKey).(*session.Identity)
	return id
}

// Auth resolves the caller's identity and stores it in the request context.
// Locally issued session tokens (the demo account) are checked first, then
// the token is handed to the upstream verifier. The verifier may be nil when
// no remote backend is configured.
func Auth(tokens *auth.SessionTokens, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// Try HttpOnly cookie first (browser requests)
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				token = cookie.Value
			} else {
				// Fall back to Authorization header (API clients)
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					http.Error(w, "Authentication required", http.StatusUnauthorized)
					return
				}
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
					return
				}
				token = parts[1]
			}

			id, err := tokens.Validate(token)
			if err != nil && verifier != nil {
				id, err = verifier.VerifyIDToken(r.Context(), token)
			}
			if err != nil || id == nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
