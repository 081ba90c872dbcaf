package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"kudi/internal/domain/session"
	"kudi/internal/domain/transaction"
	"kudi/internal/events"
	"kudi/internal/feed"
	"kudi/internal/shared/middleware"
)

// EventPublisher publishes transaction change events. A nil publisher
// disables publishing; failures never fail the request.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event string, tx *transaction.Transaction) error
}

// TransactionHandler serves the transaction API. Every request resolves its
// backing store through the session gate, so demo sessions and signed-in
// users transparently hit different backends.
type TransactionHandler struct {
	gate      *session.Gate
	publisher EventPublisher
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(gate *session.Gate, publisher EventPublisher) *TransactionHandler {
	return &TransactionHandler{gate: gate, publisher: publisher}
}

// HTTP request/response types (transport layer concerns)
type CreateTransactionRequest struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
}

type ListTransactionsResponse struct {
	Transactions []*transaction.Transaction `json:"transactions"`
	Summary      transaction.Summary        `json:"summary"`
	Error        string                     `json:"error,omitempty"`
}

type SummaryResponse struct {
	transaction.Summary
	Error string `json:"error,omitempty"`
}

type DailyAnalyticsResponse struct {
	Days  []transaction.DailyTotal `json:"days"`
	Error string                   `json:"error,omitempty"`
}

// malformedDataMsg is surfaced to the caller whenever stored transaction
// data cannot be decoded and the response degrades to the empty set.
const malformedDataMsg = "Failed to read stored transactions"

// HandleTransactions serves the collection: GET lists, POST creates.
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, id)
	case http.MethodPost:
		h.handleCreate(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request, id *session.Identity) {
	txs, errMsg, err := h.listForIdentity(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListTransactionsResponse{
		Transactions: txs,
		Summary:      transaction.Aggregate(txs),
		Error:        errMsg,
	})
}

// listForIdentity reads the full set through the gate. Corrupt local data
// degrades to an empty list rather than failing the request; the returned
// message tells the caller the data was dropped.
func (h *TransactionHandler) listForIdentity(ctx context.Context, id *session.Identity) ([]*transaction.Transaction, string, error) {
	store, _ := h.gate.Select(ctx, id)
	txs, err := store.ListByUser(ctx, id.UID)
	if err != nil {
		if errors.Is(err, transaction.ErrMalformedData) {
			log.Printf("Discarding unreadable transaction data for user %s: %v", id.UID, err)
			return []*transaction.Transaction{}, malformedDataMsg, nil
		}
		log.Printf("Error listing transactions for user %s: %v", id.UID, err)
		return nil, "", err
	}
	if txs == nil {
		txs = []*transaction.Transaction{}
	}
	return txs, "", nil
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request, id *session.Identity) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := transaction.CreateParams{
		UserID:      id.UID,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Type:        req.Type,
	}
	if err := params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	store, _ := h.gate.Select(r.Context(), id)
	tx, err := store.Add(r.Context(), params)
	if err != nil {
		log.Printf("Error creating transaction for user %s: %v", id.UID, err)
		http.Error(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}

	h.publish(r.Context(), events.TransactionAdded, tx)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// HandleTransactionByID handles operations on a specific transaction (DELETE)
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txID := r.PathValue("id")
	if txID == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store, _ := h.gate.Select(r.Context(), id)
	// Removing an unknown id is a no-op, so deletion is idempotent.
	if err := store.Remove(r.Context(), id.UID, txID); err != nil {
		log.Printf("Error deleting transaction %s: %v", txID, err)
		http.Error(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}

	h.publish(r.Context(), events.TransactionRemoved, &transaction.Transaction{ID: txID, UserID: id.UID})

	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary returns the income/expense/balance totals for the caller.
func (h *TransactionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txs, errMsg, err := h.listForIdentity(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to compute summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SummaryResponse{
		Summary: transaction.Aggregate(txs),
		Error:   errMsg,
	})
}

// HandleDailyAnalytics returns per-day totals, oldest day first.
func (h *TransactionHandler) HandleDailyAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txs, errMsg, err := h.listForIdentity(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}

	totals := transaction.DailyTotals(txs)
	if totals == nil {
		totals = []transaction.DailyTotal{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DailyAnalyticsResponse{Days: totals, Error: errMsg})
}

// HandleStream pushes live view snapshots over Server-Sent Events. Each
// connection runs its own synchronizer, so remote sessions get Firestore
// push updates and local sessions get the durable set re-read per mutation.
func (h *TransactionHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	f := feed.New(h.gate)
	defer f.Close()

	snapshots, cancel := f.Subscribe()
	defer cancel()

	if err := f.SetIdentity(r.Context(), id); err != nil {
		log.Printf("Error starting transaction stream for user %s: %v", id.UID, err)
		http.Error(w, "Failed to start stream", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				log.Printf("Error encoding stream snapshot: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *TransactionHandler) publish(ctx context.Context, event string, tx *transaction.Transaction) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishTransactionEvent(ctx, event, tx); err != nil {
		log.Printf("Error publishing %s event: %v", event, err)
	}
}
