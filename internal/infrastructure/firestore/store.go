// Package firestore adapts the remote Firestore document collection to the
// domain transaction store contract.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/iterator"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kudi/internal/domain/transaction"
)

// DefaultCollection is the document collection holding transactions.
const DefaultCollection = "transactions"

var storeTracer = otel.Tracer("kudi.firestore")

// record is the document shape persisted in the collection. The date field
// carries the serverTimestamp sentinel: the backend assigns creation time.
type record struct {
	UserID      string    `firestore:"userId"`
	Amount      float64   `firestore:"amount"`
	Category    string    `firestore:"category"`
	Description string    `firestore:"description"`
	Type        string    `firestore:"type"`
	Date        time.Time `firestore:"date,serverTimestamp"`
}

func (r record) toDomain(id string) *transaction.Transaction {
	return &transaction.Transaction{
		ID:          id,
		UserID:      r.UserID,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Type:        r.Type,
		Date:        transaction.NewTimestamp(r.Date),
	}
}

// Store persists transactions in a Firestore collection.
type Store struct {
	client     *firestore.Client
	collection string
}

// NewStore creates a remote store over the given client. An empty collection
// name selects DefaultCollection.
func NewStore(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, collection: collection}
}

func (s *Store) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *Store) userQuery(userID string) firestore.Query {
	return s.col().
		Where("userId", "==", userID).
		OrderBy("date", firestore.Desc)
}

// Add creates the document with a store-generated id and a server-assigned
// date, then reads it back so the caller gets the record as stored.
func (s *Store) Add(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	ctx, span := storeTracer.Start(ctx, "firestore.Add",
		trace.WithAttributes(attribute.String("db.collection", s.collection)))
	defer span.End()

	ref := s.col().NewDoc()
	doc := record{
		UserID:      params.UserID,
		Amount:      params.Amount,
		Category:    params.Category,
		Description: params.Description,
		Type:        params.Type,
	}

	if _, err := ref.Create(ctx, doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: create document: %v", transaction.ErrPersistence, err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: read back document: %v", transaction.ErrPersistence, err)
	}

	var stored record
	if err := snap.DataTo(&stored); err != nil {
		return nil, fmt.Errorf("%w: %v", transaction.ErrMalformedData, err)
	}
	return stored.toDomain(ref.ID), nil
}

// Remove deletes the document when it exists and belongs to the user. A
// missing document, or one owned by someone else, is invisible to the caller
// and treated as a no-op.
func (s *Store) Remove(ctx context.Context, userID, id string) error {
	ctx, span := storeTracer.Start(ctx, "firestore.Remove",
		trace.WithAttributes(attribute.String("db.collection", s.collection)))
	defer span.End()

	ref := s.col().Doc(id)

	snap, err := ref.Get(ctx)
	if status.Code(err) == grpccodes.NotFound {
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: look up document: %v", transaction.ErrPersistence, err)
	}

	var stored record
	if err := snap.DataTo(&stored); err != nil {
		return fmt.Errorf("%w: %v", transaction.ErrMalformedData, err)
	}
	if stored.UserID != userID {
		return nil
	}

	if _, err := ref.Delete(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: delete document: %v", transaction.ErrPersistence, err)
	}
	return nil
}

// ListByUser returns all of the user's transactions, date descending.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	ctx, span := storeTracer.Start(ctx, "firestore.ListByUser",
		trace.WithAttributes(attribute.String("db.collection", s.collection)))
	defer span.End()

	it := s.userQuery(userID).Documents(ctx)
	defer it.Stop()

	txs, err := collect(it)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: query transactions: %v", transaction.ErrPersistence, err)
	}
	return txs, nil
}

func collect(it *firestore.DocumentIterator) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return txs, nil
		}
		if err != nil {
			return nil, err
		}

		var stored record
		if err := snap.DataTo(&stored); err != nil {
			return nil, err
		}
		txs = append(txs, stored.toDomain(snap.Ref.ID))
	}
}
