package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"kudi/internal/domain/session"
	"kudi/internal/shared/auth"
	"kudi/internal/shared/middleware"
)

// AuthHandler manages demo sessions. Real sign-in happens against Firebase
// on the client; this server only mints tokens for the built-in demo
// identity and tracks the persisted demo flag.
type AuthHandler struct {
	tokens *auth.SessionTokens
	flags  session.DemoFlagStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *auth.SessionTokens, flags session.DemoFlagStore) *AuthHandler {
	return &AuthHandler{tokens: tokens, flags: flags}
}

type LoginResponse struct {
	Token string            `json:"token"`
	User  *session.Identity `json:"user"`
}

// HandleDemoLogin starts a demo session: it sets the demo identity's own
// persisted flag and issues a session token for it. No other user's backend
// choice is affected.
func (h *AuthHandler) HandleDemoLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := session.NewDemoIdentity()
	token, err := h.tokens.Generate(id)
	if err != nil {
		log.Printf("Error generating demo session token: %v", err)
		http.Error(w, "Failed to start demo session", http.StatusInternalServerError)
		return
	}

	if err := h.flags.SetDemoMode(r.Context(), id.UID, true); err != nil {
		log.Printf("Error setting demo flag: %v", err)
		http.Error(w, "Failed to start demo session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, User: id})
}

// HandleLogout ends the session: the caller's own demo flag is cleared and
// the session cookie expired.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if id := middleware.IdentityFrom(r.Context()); id != nil {
		if err := h.flags.SetDemoMode(r.Context(), id.UID, false); err != nil {
			log.Printf("Error clearing demo flag for user %s: %v", id.UID, err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated identity.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(id)
}
