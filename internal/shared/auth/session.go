// Package auth issues and validates the signed session tokens used by
// identities that never touch Firebase, such as the demo account.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"kudi/internal/domain/session"
)

const sessionTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

// SessionClaims carries the identity inside a session token.
type SessionClaims struct {
	Email      string `json:"email"`
	ProviderID string `json:"providerId"`
	jwt.RegisteredClaims
}

// SessionTokens signs and validates HS256 session tokens.
type SessionTokens struct {
	secret []byte
}

func NewSessionTokens(secret string) *SessionTokens {
	return &SessionTokens{secret: []byte(secret)}
}

// Generate mints a signed token for the given identity.
func (s *SessionTokens) Generate(id *session.Identity) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email:      id.Email,
		ProviderID: id.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and returns the identity it carries.
func (s *SessionTokens) Validate(tokenString string) (*session.Identity, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &session.Identity{
		UID:        claims.Subject,
		Email:      claims.Email,
		ProviderID: claims.ProviderID,
	}, nil
}
