package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kudi/internal/domain/transaction"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kudi.db")
	kv, err := OpenKV(path)
	if err != nil {
		t.Fatalf("OpenKV() failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return NewStore(kv), path
}

func TestStore_AddAndList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	before := time.Now()
	tx, err := store.Add(ctx, transaction.CreateParams{
		UserID:      "user-1",
		Amount:      5000,
		Category:    "Income",
		Description: "Salary",
		Type:        transaction.TypeIncome,
	})
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if tx.ID == "" {
		t.Error("Add() did not assign an id")
	}
	if tx.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", tx.UserID, "user-1")
	}
	if got := tx.Date.Time(); got.Before(before.Add(-time.Second)) || got.After(time.Now().Add(time.Second)) {
		t.Errorf("Date = %v, want approximately now", got)
	}

	txs, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("ListByUser() returned %d records, want 1", len(txs))
	}
	got := txs[0]
	if got.ID != tx.ID || got.Amount != 5000 || got.Category != "Income" ||
		got.Description != "Salary" || got.Type != transaction.TypeIncome {
		t.Errorf("stored record = %+v, does not match input", got)
	}
}

func TestStore_RapidAddsBothDurable(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	// Freeze the clock so both adds land in the same millisecond.
	frozen := time.Now()
	store.now = func() time.Time { return frozen }

	for _, desc := range []string{"first", "second"} {
		if _, err := store.Add(ctx, transaction.CreateParams{
			UserID:      "user-1",
			Amount:      10,
			Category:    "Others",
			Description: desc,
			Type:        transaction.TypeExpense,
		}); err != nil {
			t.Fatalf("Add(%q) failed: %v", desc, err)
		}
	}

	// Re-open the store to prove both writes hit durable storage, not just
	// in-memory state.
	kv, err := OpenKV(path)
	if err != nil {
		t.Fatalf("re-open failed: %v", err)
	}
	defer kv.Close()

	txs, err := NewStore(kv).ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d durable records, want 2", len(txs))
	}
	if txs[0].ID == txs[1].ID {
		t.Errorf("both records share id %q", txs[0].ID)
	}
}

func TestStore_ListSortedDateDescending(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		store.now = func() time.Time { return ts }
		if _, err := store.Add(ctx, transaction.CreateParams{
			UserID:   "user-1",
			Amount:   float64(i + 1),
			Category: "Others",
			Type:     transaction.TypeExpense,
		}); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	txs, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	for i := 1; i < len(txs); i++ {
		if txs[i-1].Date.Before(txs[i].Date) {
			t.Errorf("list not date-descending at index %d", i)
		}
	}
}

func TestStore_ListIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.now = func() time.Time { return time.Now().Add(time.Duration(i) * time.Minute) }
		if _, err := store.Add(ctx, transaction.CreateParams{
			UserID:   "user-1",
			Amount:   float64(i),
			Category: "Others",
			Type:     transaction.TypeExpense,
		}); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	first, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("first ListByUser() failed: %v", err)
	}
	second, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("second ListByUser() failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("list lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("order differs at index %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestStore_Remove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Add(ctx, transaction.CreateParams{
		UserID:   "user-1",
		Amount:   20,
		Category: "Others",
		Type:     transaction.TypeExpense,
	})
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if err := store.Remove(ctx, "user-1", tx.ID); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	txs, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	for _, got := range txs {
		if got.ID == tx.ID {
			t.Errorf("record %q still present after Remove()", tx.ID)
		}
	}

	// Removing an id that does not exist is a no-op.
	if err := store.Remove(ctx, "user-1", "no-such-id"); err != nil {
		t.Errorf("Remove() of unknown id errored: %v", err)
	}
}

func TestStore_NoCrossUserVisibility(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, transaction.CreateParams{
		UserID:   "user-a",
		Amount:   10,
		Category: "Others",
		Type:     transaction.TypeExpense,
	}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	txs, err := store.ListByUser(ctx, "user-b")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("user-b sees %d of user-a's records", len(txs))
	}
}

func TestStore_MalformedBlob(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.kv.Put(ctx, blobKey("user-1"), []byte("{not json")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	_, err := store.ListByUser(ctx, "user-1")
	if !errors.Is(err, transaction.ErrMalformedData) {
		t.Errorf("ListByUser() error = %v, want ErrMalformedData", err)
	}
}

func TestStore_DemoFlag(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	set, err := store.DemoMode(ctx, "user-1")
	if err != nil {
		t.Fatalf("DemoMode() failed: %v", err)
	}
	if set {
		t.Error("demo flag set on a fresh store")
	}

	if err := store.SetDemoMode(ctx, "user-1", true); err != nil {
		t.Fatalf("SetDemoMode(true) failed: %v", err)
	}
	if set, _ = store.DemoMode(ctx, "user-1"); !set {
		t.Error("demo flag not set after SetDemoMode(true)")
	}

	// The flag is scoped per user.
	if set, _ = store.DemoMode(ctx, "user-2"); set {
		t.Error("user-1's demo flag leaked to user-2")
	}

	if err := store.SetDemoMode(ctx, "user-1", false); err != nil {
		t.Fatalf("SetDemoMode(false) failed: %v", err)
	}
	if set, _ = store.DemoMode(ctx, "user-1"); set {
		t.Error("demo flag still set after SetDemoMode(false)")
	}
}
