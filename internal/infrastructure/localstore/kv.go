package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	_ "modernc.org/sqlite"
)

var kvTracer = otel.Tracer("kudi.localstore")

// KV is the durable local key-value blob store. Reads and writes are
// synchronous single-row operations against SQLite.
type KV struct {
	db *sql.DB
}

// OpenKV opens (and if needed creates) the local store at path and applies
// pending schema migrations.
func OpenKV(path string) (*KV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	// The blob store is written from a single process; one connection keeps
	// SQLite's locking out of the picture.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping local store: %w", err)
	}

	if err := runMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	return &KV{db: db}, nil
}

// Close releases the underlying database handle.
func (kv *KV) Close() error {
	return kv.db.Close()
}

// Get returns the blob stored under key, or nil when the key is absent.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := kvTracer.Start(ctx, "localstore.Get",
		trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	var value []byte
	err := kv.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read key %q: %w", key, err)
	}
	return value, nil
}

// Put stores the blob under key, replacing any previous value.
func (kv *KV) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := kvTracer.Start(ctx, "localstore.Put",
		trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Absent keys are a no-op.
func (kv *KV) Delete(ctx context.Context, key string) error {
	ctx, span := kvTracer.Start(ctx, "localstore.Delete",
		trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	if _, err := kv.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}
