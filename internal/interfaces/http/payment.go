package http

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"kudi/internal/domain/session"
	"kudi/internal/domain/transaction"
	"kudi/internal/events"
)

// PaymentHandler receives Paystack webhooks and records successful deposits
// as income transactions for the paying user.
type PaymentHandler struct {
	gate      *session.Gate
	secretKey string
	publisher EventPublisher
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(gate *session.Gate, secretKey string, publisher EventPublisher) *PaymentHandler {
	return &PaymentHandler{gate: gate, secretKey: secretKey, publisher: publisher}
}

// paystackEvent is the subset of the webhook payload we act on. Amounts
// arrive in kobo.
type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Metadata  struct {
			UserID string `json:"userId"`
		} `json:"metadata"`
	} `json:"data"`
}

// HandleWebhook verifies the Paystack signature and records charge.success
// events. All other event types are acknowledged and ignored.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if !h.validSignature(body, r.Header.Get("X-Paystack-Signature")) {
		log.Printf("Rejected webhook with invalid signature from %s", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event paystackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if event.Event != "charge.success" {
		w.WriteHeader(http.StatusOK)
		return
	}

	userID := event.Data.Metadata.UserID
	if userID == "" {
		http.Error(w, "Missing userId metadata", http.StatusBadRequest)
		return
	}

	// Webhooks carry no session, so the store is resolved for the user
	// named in the charge metadata.
	id := &session.Identity{UID: userID}
	store, _ := h.gate.Select(r.Context(), id)

	tx, err := store.Add(r.Context(), transaction.CreateParams{
		UserID:      userID,
		Amount:      float64(event.Data.Amount) / 100, // kobo to naira
		Category:    "Income",
		Description: "Deposit via Paystack",
		Type:        transaction.TypeIncome,
	})
	if err != nil {
		log.Printf("Error recording deposit %s for user %s: %v", event.Data.Reference, userID, err)
		http.Error(w, "Failed to record deposit", http.StatusInternalServerError)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishTransactionEvent(r.Context(), events.TransactionAdded, tx); err != nil {
			log.Printf("Error publishing deposit event: %v", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// validSignature checks the HMAC-SHA512 hex digest Paystack sends in the
// X-Paystack-Signature header against the raw request body.
func (h *PaymentHandler) validSignature(body []byte, signature string) bool {
	if h.secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
