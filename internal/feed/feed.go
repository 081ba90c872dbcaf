// Package feed keeps an always-current, ordered in-memory view of the active
// user's transactions and notifies dependents on every change.
package feed

import (
	"context"
	"log"
	"sync"

	"kudi/internal/domain/session"
	"kudi/internal/domain/transaction"
)

// State is the synchronizer lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateSynced
	StateError
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	case StateError:
		return "error"
	default:
		return "uninitialized"
	}
}

// Snapshot is the view delivered to subscribers: the full ordered list, its
// derived totals, and the synchronizer state at that moment.
type Snapshot struct {
	Transactions []*transaction.Transaction `json:"transactions"`
	Summary      transaction.Summary        `json:"summary"`
	State        State                      `json:"-"`
	ErrMessage   string                     `json:"error,omitempty"`
}

// Feed is the live view synchronizer. In remote mode it consumes a standing
// subscription whose every push replaces the list wholesale; in local mode
// each mutation triggers a synchronous full reload from durable storage.
// All state transitions happen under one mutex; there is a single writer
// context per user session.
type Feed struct {
	gate *session.Gate

	mu       sync.Mutex
	identity *session.Identity
	store    transaction.Store
	mode     session.Mode
	sub      transaction.Subscription
	gen      uint64 // bumped on every identity change; stale deliveries are discarded
	txs      []*transaction.Transaction
	state    State
	errMsg   string
	err      error

	listeners map[uint64]chan Snapshot
	nextID    uint64
	closed    bool
}

// New creates a feed in the Uninitialized state.
func New(gate *session.Gate) *Feed {
	return &Feed{
		gate:      gate,
		state:     StateUninitialized,
		listeners: make(map[uint64]chan Snapshot),
	}
}

// SetIdentity switches the feed to a new identity. The previous list is
// cleared and the previous subscription released before any of the new
// identity's data loads, so data never leaks across users. A nil identity
// unwinds the feed back to Uninitialized (logout).
func (f *Feed) SetIdentity(ctx context.Context, id *session.Identity) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}

	f.gen++
	gen := f.gen
	old := f.sub
	f.sub = nil
	f.txs = nil
	f.identity = id
	f.err = nil
	f.errMsg = ""

	if id == nil {
		f.store = nil
		f.state = StateUninitialized
		f.notifyLocked()
		f.mu.Unlock()
		release(old)
		return nil
	}

	f.state = StateLoading
	f.notifyLocked()
	f.mu.Unlock()
	release(old)

	store, mode := f.gate.Select(ctx, id)

	f.mu.Lock()
	if f.gen != gen || f.closed {
		f.mu.Unlock()
		return nil
	}
	f.store = store
	f.mode = mode
	f.mu.Unlock()

	if mode == session.ModeRemote {
		if watcher, ok := store.(transaction.Watcher); ok {
			return f.watch(ctx, watcher, gen, id.UID)
		}
	}

	f.reload(ctx, gen, id.UID)
	return nil
}

func (f *Feed) watch(ctx context.Context, watcher transaction.Watcher, gen uint64, userID string) error {
	sub, err := watcher.Watch(ctx, userID)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen || f.closed {
			return nil
		}
		f.state = StateError
		f.err = err
		f.errMsg = "Failed to fetch transactions"
		f.notifyLocked()
		return err
	}

	f.mu.Lock()
	if f.gen != gen || f.closed {
		f.mu.Unlock()
		release(sub)
		return nil
	}
	f.sub = sub
	f.mu.Unlock()

	go f.consume(gen, sub)
	return nil
}

// consume applies every pushed snapshot wholesale until the subscription
// ends. Deliveries from a superseded subscription are discarded.
func (f *Feed) consume(gen uint64, sub transaction.Subscription) {
	for snap := range sub.Snapshots() {
		f.mu.Lock()
		if f.gen != gen || f.closed {
			f.mu.Unlock()
			return
		}
		f.txs = snap
		f.state = StateSynced
		f.err = nil
		f.errMsg = ""
		f.notifyLocked()
		f.mu.Unlock()
	}

	// Channel closed: either released on purpose or the listener failed.
	err := sub.Err()
	if err == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.closed {
		return
	}
	log.Printf("Transaction subscription failed: %v", err)
	f.state = StateError
	f.err = err
	f.errMsg = "Failed to fetch transactions"
	f.notifyLocked()
}

// reload re-reads the full durable set. Read failures degrade to an empty
// list with a reported error; they never crash the synchronizer.
func (f *Feed) reload(ctx context.Context, gen uint64, userID string) {
	f.mu.Lock()
	store := f.store
	f.mu.Unlock()
	if store == nil {
		return
	}

	txs, err := store.ListByUser(ctx, userID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.closed {
		return
	}

	if err != nil {
		log.Printf("Failed to load local transactions: %v", err)
		f.txs = nil
		f.state = StateError
		f.err = err
		f.errMsg = "Failed to load local transactions"
	} else {
		f.txs = txs
		f.state = StateSynced
		f.err = nil
		f.errMsg = ""
	}
	f.notifyLocked()
}

// Add validates entry-time constraints, persists the transaction for the
// active identity, and returns the stored record. In local mode the full
// durable set is re-read afterwards rather than patching cached state.
func (f *Feed) Add(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	f.mu.Lock()
	if f.identity == nil || f.store == nil {
		f.mu.Unlock()
		return nil, transaction.ErrAuthUnavailable
	}
	store, mode, userID, gen := f.store, f.mode, f.identity.UID, f.gen
	f.mu.Unlock()

	params.UserID = userID
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tx, err := store.Add(ctx, params)
	if err != nil {
		return nil, err
	}

	if mode == session.ModeLocal {
		f.reload(ctx, gen, userID)
	}
	return tx, nil
}

// Remove deletes the record with the given id for the active identity.
// Removing an unknown id is a no-op.
func (f *Feed) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.identity == nil || f.store == nil {
		f.mu.Unlock()
		return transaction.ErrAuthUnavailable
	}
	store, mode, userID, gen := f.store, f.mode, f.identity.UID, f.gen
	f.mu.Unlock()

	if err := store.Remove(ctx, userID, id); err != nil {
		return err
	}

	if mode == session.ModeLocal {
		f.reload(ctx, gen, userID)
	}
	return nil
}

// Transactions returns a copy of the current ordered list.
func (f *Feed) Transactions() []*transaction.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*transaction.Transaction, len(f.txs))
	copy(out, f.txs)
	return out
}

// Summary derives the totals from the current list.
func (f *Feed) Summary() transaction.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return transaction.Aggregate(f.txs)
}

// State returns the current lifecycle state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error behind an Error state, if any.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Subscribe registers a dependent. The current snapshot is delivered
// immediately, then every change; delivery is latest-wins for slow readers.
// The returned cancel func releases the registration.
func (f *Feed) Subscribe() (<-chan Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Snapshot, 1)
	id := f.nextID
	f.nextID++

	if f.closed {
		close(ch)
		return ch, func() {}
	}

	f.listeners[id] = ch
	ch <- f.snapshotLocked()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.listeners[id]; ok {
			delete(f.listeners, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Close unwinds the feed: subscription released, list cleared, all
// subscriber channels closed. Safe to call more than once.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.gen++
	old := f.sub
	f.sub = nil
	f.txs = nil
	f.identity = nil
	f.state = StateUninitialized
	for id, ch := range f.listeners {
		delete(f.listeners, id)
		close(ch)
	}
	f.mu.Unlock()
	release(old)
}

func (f *Feed) snapshotLocked() Snapshot {
	txs := make([]*transaction.Transaction, len(f.txs))
	copy(txs, f.txs)
	return Snapshot{
		Transactions: txs,
		Summary:      transaction.Aggregate(f.txs),
		State:        f.state,
		ErrMessage:   f.errMsg,
	}
}

// notifyLocked pushes the current snapshot to every listener, replacing any
// undelivered one. Callers hold f.mu.
func (f *Feed) notifyLocked() {
	snap := f.snapshotLocked()
	for _, ch := range f.listeners {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func release(sub transaction.Subscription) {
	if sub != nil {
		sub.Close()
	}
}
