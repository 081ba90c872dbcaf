package main

import (
	"context"
	"log"

	"kudi/internal/domain/session"
	"kudi/internal/events"
	"kudi/internal/infrastructure/firebase"
	"kudi/internal/infrastructure/firestore"
	"kudi/internal/infrastructure/localstore"
	httphandlers "kudi/internal/interfaces/http"
	"kudi/internal/shared/auth"
	"kudi/internal/shared/config"
	"kudi/internal/shared/middleware"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	KV       *localstore.KV
	Firebase *firebase.Client // nil when no remote backend is configured

	// Handlers
	AuthHandler        *httphandlers.AuthHandler
	TransactionHandler *httphandlers.TransactionHandler
	PaymentHandler     *httphandlers.PaymentHandler

	// Auth
	SessionTokens *auth.SessionTokens
	Verifier      middleware.TokenVerifier

	// Events
	Publisher *events.Publisher // nil when AMQP is not configured
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Open the local store; it is always available and backs demo sessions,
	// the demo flag, and every session when no remote backend is configured.
	kv, err := localstore.OpenKV(cfg.LocalStore.DBPath)
	if err != nil {
		return nil, err
	}
	local := localstore.NewStore(kv)
	log.Printf("Local store ready at %s", cfg.LocalStore.DBPath)

	d := &Dependencies{KV: kv}

	// Connect to Firebase when credentials are configured. Without them the
	// gate routes every session to the local store.
	var remote *firestore.Store
	if cfg.Firebase.Configured() {
		client, err := firebase.NewClient(context.Background(), cfg.Firebase.CredentialsFile)
		if err != nil {
			kv.Close()
			return nil, err
		}
		d.Firebase = client
		d.Verifier = client
		remote = firestore.NewStore(client.Firestore(), cfg.Firebase.TransactionsCollection)
		log.Println("Connected to Firebase")
	} else {
		log.Println("No Firebase credentials configured, running in local-only mode")
	}

	var gate *session.Gate
	if remote != nil {
		gate = session.NewGate(remote, local, local)
	} else {
		gate = session.NewGate(nil, local, local)
	}

	// Connect to the event broker when configured. Publishing is optional.
	if cfg.AMQP.Enabled() {
		publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			log.Printf("Warning: event publisher unavailable: %v", err)
		} else {
			d.Publisher = publisher
			log.Println("Connected to event broker")
		}
	}

	// A nil *events.Publisher must stay a nil interface for the handlers.
	var publisher httphandlers.EventPublisher
	if d.Publisher != nil {
		publisher = d.Publisher
	}

	d.SessionTokens = auth.NewSessionTokens(cfg.Session.Secret)
	d.AuthHandler = httphandlers.NewAuthHandler(d.SessionTokens, local)
	d.TransactionHandler = httphandlers.NewTransactionHandler(gate, publisher)
	d.PaymentHandler = httphandlers.NewPaymentHandler(gate, cfg.Paystack.SecretKey, publisher)

	return d, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Firebase != nil {
		d.Firebase.Close()
	}
	if d.KV != nil {
		d.KV.Close()
	}
}
