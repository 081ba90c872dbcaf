package transaction

import "context"

// Store defines the interface for transaction persistence. Implementations
// exist for the remote document store and the local key-value blob store;
// the session gate decides which one is active for an identity.
type Store interface {
	// Add assigns id and date, persists the record, and returns it as stored.
	Add(ctx context.Context, params CreateParams) (*Transaction, error)
	// Remove deletes the record with the given id for the user. Removing an
	// id that does not exist is a no-op.
	Remove(ctx context.Context, userID, id string) error
	// ListByUser returns all of the user's transactions, date descending.
	ListByUser(ctx context.Context, userID string) ([]*Transaction, error)
}

// Watcher is implemented by stores that can push live snapshots.
type Watcher interface {
	// Watch opens a standing subscription for the user's transactions.
	Watch(ctx context.Context, userID string) (Subscription, error)
}

// Subscription is a long-lived handle delivering complete snapshots whenever
// the backend reports a change. It must be released exactly once; holding it
// open after the user identity changes leaks a live query.
type Subscription interface {
	// Snapshots yields complete replacement sets, date descending. The
	// channel is closed when the subscription ends; check Err afterwards.
	Snapshots() <-chan []*Transaction
	// Err returns the error that terminated the subscription, if any.
	Err() error
	// Close releases the subscription. Safe to call more than once.
	Close()
}
