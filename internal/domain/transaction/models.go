package transaction

import (
	"errors"
	"fmt"
	"time"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Categories offered at entry time. Storage does not enforce them, so
// records written by older clients with retired labels still load.
var categories = map[string]struct{}{
	"Food & Drink":         {},
	"Shopping":             {},
	"Housing":              {},
	"Transportation":       {},
	"Vehicle":              {},
	"Life & Entertainment": {},
	"Communication & PC":   {},
	"Financial expenses":   {},
	"Investments":          {},
	"Income":               {},
	"Others":               {},
}

// Domain errors
var (
	ErrAuthUnavailable = errors.New("no authenticated identity")
	ErrPersistence     = errors.New("persistence failure")
	ErrMalformedData   = errors.New("stored data is malformed")
)

// Timestamp is the internal creation-time representation: a seconds plus
// nanoseconds pair. Its JSON shape matches the serialized local blob format.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// NewTimestamp converts a time.Time into a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Seconds:     t.Unix(),
		Nanoseconds: int32(t.Nanosecond()),
	}
}

// Time converts the Timestamp back to a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds)).UTC()
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	if ts.Seconds != other.Seconds {
		return ts.Seconds < other.Seconds
	}
	return ts.Nanoseconds < other.Nanoseconds
}

// Transaction is the sole domain entity: a single income or expense record
// owned by exactly one user. Records are immutable after creation.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Date        Timestamp `json:"date"`
}

// CreateParams contains the caller-supplied fields for a new transaction.
// The store assigns ID and Date on persistence.
type CreateParams struct {
	UserID      string
	Amount      float64
	Category    string
	Description string
	Type        string
}

// Validate checks entry-time constraints.
func (p CreateParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	if p.Type != TypeIncome && p.Type != TypeExpense {
		return fmt.Errorf("type must be %q or %q", TypeIncome, TypeExpense)
	}
	if p.Category == "" {
		return errors.New("category is required")
	}
	if !IsValidCategory(p.Category) {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	return nil
}

// IsValidCategory checks whether the label is in the fixed entry-time set.
func IsValidCategory(c string) bool {
	_, ok := categories[c]
	return ok
}
