// Package firebase wires the Firebase admin SDK: identity verification and
// the Firestore handle the remote store adapter runs on.
package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"kudi/internal/domain/session"
)

// Client holds the initialized Firebase app and its service handles.
type Client struct {
	authClient *auth.Client
	fsClient   *firestore.Client
}

// NewClient initializes a Firebase app from a service-account credentials
// file and opens the auth and Firestore clients.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	return &Client{authClient: authClient, fsClient: fsClient}, nil
}

// Firestore returns the shared Firestore handle.
func (c *Client) Firestore() *firestore.Client {
	return c.fsClient
}

// VerifyIDToken validates a Firebase ID token and maps it to the identity
// shape the core components consume.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*session.Identity, error) {
	tok, err := c.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	email, _ := tok.Claims["email"].(string)
	return &session.Identity{
		UID:        tok.UID,
		Email:      email,
		ProviderID: tok.Firebase.SignInProvider,
	}, nil
}

// Close releases the Firestore handle.
func (c *Client) Close() error {
	if c.fsClient != nil {
		return c.fsClient.Close()
	}
	return nil
}
