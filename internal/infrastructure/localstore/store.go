package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"kudi/internal/domain/transaction"
)

func demoFlagKey(userID string) string {
	return "demo_mode_" + userID
}

// Store persists transactions as a JSON blob per user, keyed
// transactions_{userId}. Every mutation is a read-modify-write against the
// durable blob, never against cached state, so rapid successive calls and
// concurrent writers over the same file cannot lose updates.
type Store struct {
	kv  *KV
	now func() time.Time
}

// NewStore creates a transaction store over the local KV blob store.
func NewStore(kv *KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

func blobKey(userID string) string {
	return "transactions_" + userID
}

// Add assigns a millisecond-timestamp id and a client-side date, appends the
// record to the user's durable blob, and returns it.
func (s *Store) Add(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	existing, err := s.load(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tx := &transaction.Transaction{
		ID:          s.uniqueID(existing, now),
		UserID:      params.UserID,
		Amount:      params.Amount,
		Category:    params.Category,
		Description: params.Description,
		Type:        params.Type,
		Date:        transaction.NewTimestamp(now),
	}

	updated := append(existing, tx)
	transaction.SortByDateDesc(updated)

	if err := s.save(ctx, params.UserID, updated); err != nil {
		return nil, err
	}
	return tx, nil
}

// Remove deletes the record with the given id from the user's blob. An
// unknown id leaves the blob untouched.
func (s *Store) Remove(ctx context.Context, userID, id string) error {
	existing, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	updated := existing[:0]
	for _, tx := range existing {
		if tx.ID != id {
			updated = append(updated, tx)
		}
	}
	if len(updated) == len(existing) {
		return nil // no-op
	}

	return s.save(ctx, userID, updated)
}

// ListByUser returns the user's transactions, date descending. A missing
// blob is an empty list; an unparseable blob reports ErrMalformedData.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	txs, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	transaction.SortByDateDesc(txs)
	return txs, nil
}

// DemoMode reports whether the persisted demo flag is set for the user.
func (s *Store) DemoMode(ctx context.Context, userID string) (bool, error) {
	value, err := s.kv.Get(ctx, demoFlagKey(userID))
	if err != nil {
		return false, fmt.Errorf("%w: %v", transaction.ErrPersistence, err)
	}
	return string(value) == "true", nil
}

// SetDemoMode persists or clears the user's demo flag. The flag is scoped to
// one identity; it never affects any other session.
func (s *Store) SetDemoMode(ctx context.Context, userID string, enabled bool) error {
	var err error
	if enabled {
		err = s.kv.Put(ctx, demoFlagKey(userID), []byte("true"))
	} else {
		err = s.kv.Delete(ctx, demoFlagKey(userID))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", transaction.ErrPersistence, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	blob, err := s.kv.Get(ctx, blobKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transaction.ErrPersistence, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var txs []*transaction.Transaction
	if err := json.Unmarshal(blob, &txs); err != nil {
		return nil, fmt.Errorf("%w: %v", transaction.ErrMalformedData, err)
	}
	return txs, nil
}

func (s *Store) save(ctx context.Context, userID string, txs []*transaction.Transaction) error {
	if txs == nil {
		txs = []*transaction.Transaction{}
	}
	blob, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("%w: %v", transaction.ErrPersistence, err)
	}
	if err := s.kv.Put(ctx, blobKey(userID), blob); err != nil {
		return fmt.Errorf("%w: %v", transaction.ErrPersistence, err)
	}
	return nil
}

// uniqueID derives a millisecond-timestamp id, bumping it forward while it
// collides with an existing record so two adds in the same millisecond both
// survive with distinct ids.
func (s *Store) uniqueID(existing []*transaction.Transaction, now time.Time) string {
	taken := make(map[string]struct{}, len(existing))
	for _, tx := range existing {
		taken[tx.ID] = struct{}{}
	}

	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}
