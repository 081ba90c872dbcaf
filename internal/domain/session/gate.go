package session

import (
	"context"
	"log"

	"kudi/internal/domain/transaction"
)

// Mode identifies which storage backend is active for a session.
type Mode int

const (
	// ModeRemote uses the remote document store with a live subscription.
	ModeRemote Mode = iota
	// ModeLocal uses the durable local key-value blob store.
	ModeLocal
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "remote"
}

// DemoFlagStore persists the demo flag across sessions. The flag is scoped
// per identity: one user's demo session must never change which backend any
// other user sees.
type DemoFlagStore interface {
	DemoMode(ctx context.Context, userID string) (bool, error)
	SetDemoMode(ctx context.Context, userID string, enabled bool) error
}

// Gate decides, once per identity change, whether a session operates against
// the remote or the local store. The decision holds for the lifetime of the
// session; only an explicit identity change re-evaluates it.
type Gate struct {
	remote transaction.Store // nil when no remote backend is configured
	local  transaction.Store
	flags  DemoFlagStore
}

// NewGate creates a session gate. remote may be nil when the remote backend
// is not configured, in which case every session runs locally.
func NewGate(remote, local transaction.Store, flags DemoFlagStore) *Gate {
	return &Gate{remote: remote, local: local, flags: flags}
}

// Select returns the active store and mode for the identity. Local mode wins
// when no remote backend is configured, the identity is the demo identity,
// or the identity's own persisted demo flag is set.
func (g *Gate) Select(ctx context.Context, id *Identity) (transaction.Store, Mode) {
	if g.remote == nil || id.IsDemo() || g.demoFlagSet(ctx, id) {
		return g.local, ModeLocal
	}
	return g.remote, ModeRemote
}

// demoFlagSet reads the identity's persisted demo flag. A read failure
// counts as unset so a broken local store never blocks the remote path.
func (g *Gate) demoFlagSet(ctx context.Context, id *Identity) bool {
	if g.flags == nil || id == nil {
		return false
	}
	set, err := g.flags.DemoMode(ctx, id.UID)
	if err != nil {
		log.Printf("Failed to read demo flag for user %s, assuming unset: %v", id.UID, err)
		return false
	}
	return set
}
