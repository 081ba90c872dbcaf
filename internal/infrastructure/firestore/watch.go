package firestore

import (
	"context"
	"fmt"
	"sync"

	"kudi/internal/domain/transaction"
)

// Watch opens a standing snapshot listener on the user's transactions. Each
// backend change delivers the complete current result set.
func (s *Store) Watch(ctx context.Context, userID string) (transaction.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	sub := &subscription{
		snaps:  make(chan []*transaction.Transaction, 1),
		cancel: cancel,
	}

	go sub.run(ctx, s, userID)
	return sub, nil
}

// subscription adapts the Firestore snapshot iterator to the domain contract.
// Delivery is latest-wins: a slow consumer only ever misses intermediate
// snapshots, never the newest one.
type subscription struct {
	snaps  chan []*transaction.Transaction
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func (sub *subscription) run(ctx context.Context, s *Store, userID string) {
	defer close(sub.snaps)

	it := s.userQuery(userID).Snapshots(ctx)
	defer it.Stop()

	for {
		qsnap, err := it.Next()
		if err != nil {
			if ctx.Err() == nil {
				sub.setErr(fmt.Errorf("%w: snapshot listener: %v", transaction.ErrPersistence, err))
			}
			return
		}

		txs, err := collect(qsnap.Documents)
		if err != nil {
			sub.setErr(fmt.Errorf("%w: decode snapshot: %v", transaction.ErrMalformedData, err))
			return
		}

		sub.deliver(txs)
	}
}

// deliver replaces any undelivered snapshot with the newest one.
func (sub *subscription) deliver(txs []*transaction.Transaction) {
	for {
		select {
		case sub.snaps <- txs:
			return
		default:
			select {
			case <-sub.snaps:
			default:
			}
		}
	}
}

func (sub *subscription) setErr(err error) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.err = err
}

// Snapshots implements transaction.Subscription.
func (sub *subscription) Snapshots() <-chan []*transaction.Transaction {
	return sub.snaps
}

// Err implements transaction.Subscription.
func (sub *subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

// Close releases the listener. Safe to call more than once.
func (sub *subscription) Close() {
	sub.closeOnce.Do(sub.cancel)
}
