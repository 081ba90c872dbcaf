package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kudi/internal/domain/session"
	"kudi/internal/shared/auth"
	"kudi/internal/shared/middleware"
)

// MockFlagStore implements session.DemoFlagStore for testing
type MockFlagStore struct {
	demoMode map[string]bool
	setErr   error
}

func (m *MockFlagStore) DemoMode(ctx context.Context, userID string) (bool, error) {
	return m.demoMode[userID], nil
}

func (m *MockFlagStore) SetDemoMode(ctx context.Context, userID string, enabled bool) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.demoMode == nil {
		m.demoMode = make(map[string]bool)
	}
	m.demoMode[userID] = enabled
	return nil
}

func TestHandleDemoLogin(t *testing.T) {
	tokens := auth.NewSessionTokens("test-secret")
	flags := &MockFlagStore{}
	handler := NewAuthHandler(tokens, flags)

	req := httptest.NewRequest("POST", "/api/auth/demo", nil)
	rec := httptest.NewRecorder()

	handler.HandleDemoLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !flags.demoMode[session.DemoUID] {
		t.Error("demo flag was not set for the demo identity")
	}
	if flags.demoMode["some-other-user"] {
		t.Error("demo login touched another user's flag")
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if resp.User.UID != session.DemoUID {
		t.Errorf("UID = %q, want %q", resp.User.UID, session.DemoUID)
	}

	// The token must round-trip through validation.
	id, err := tokens.Validate(resp.Token)
	if err != nil {
		t.Fatalf("Validate(issued token) failed: %v", err)
	}
	if !id.IsDemo() {
		t.Error("issued token does not carry the demo identity")
	}

	// A session cookie must be set.
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == middleware.SessionCookie && c.Value == resp.Token {
			found = true
			if !c.HttpOnly {
				t.Error("session cookie is not HttpOnly")
			}
		}
	}
	if !found {
		t.Error("session cookie missing from response")
	}
}

func TestHandleDemoLogin_MethodNotAllowed(t *testing.T) {
	handler := NewAuthHandler(auth.NewSessionTokens("s"), &MockFlagStore{})

	req := httptest.NewRequest("GET", "/api/auth/demo", nil)
	rec := httptest.NewRecorder()

	handler.HandleDemoLogin(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleLogout(t *testing.T) {
	flags := &MockFlagStore{demoMode: map[string]bool{
		session.DemoUID: true,
		"user-other":    true,
	}}
	handler := NewAuthHandler(auth.NewSessionTokens("s"), flags)

	req := withIdentity(httptest.NewRequest("POST", "/api/auth/logout", nil), session.NewDemoIdentity())
	rec := httptest.NewRecorder()

	handler.HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if flags.demoMode[session.DemoUID] {
		t.Error("demo flag was not cleared")
	}
	if !flags.demoMode["user-other"] {
		t.Error("logout cleared another user's flag")
	}

	cookies := rec.Result().Cookies()
	var cleared bool
	for _, c := range cookies {
		if c.Name == middleware.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie was not expired")
	}
}

func TestHandleMe(t *testing.T) {
	handler := NewAuthHandler(auth.NewSessionTokens("s"), &MockFlagStore{})

	t.Run("Authenticated", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest("GET", "/api/users/me", nil), session.NewDemoIdentity())
		rec := httptest.NewRecorder()

		handler.HandleMe(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var id session.Identity
		if err := json.NewDecoder(rec.Body).Decode(&id); err != nil {
			t.Fatalf("decoding response failed: %v", err)
		}
		if id.Email != session.DemoEmail {
			t.Errorf("Email = %q, want %q", id.Email, session.DemoEmail)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/users/me", nil)
		rec := httptest.NewRecorder()

		handler.HandleMe(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
