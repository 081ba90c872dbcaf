package transaction

import (
	"testing"
	"time"
)

func TestCreateParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  CreateParams
		wantErr bool
	}{
		{
			name: "valid expense",
			params: CreateParams{
				UserID:      "user-1",
				Amount:      1500,
				Category:    "Housing",
				Description: "Rent",
				Type:        TypeExpense,
			},
			wantErr: false,
		},
		{
			name: "valid income",
			params: CreateParams{
				UserID:      "user-1",
				Amount:      5000,
				Category:    "Income",
				Description: "Salary",
				Type:        TypeIncome,
			},
			wantErr: false,
		},
		{
			name: "zero amount is allowed",
			params: CreateParams{
				UserID:   "user-1",
				Amount:   0,
				Category: "Others",
				Type:     TypeExpense,
			},
			wantErr: false,
		},
		{
			name: "negative amount",
			params: CreateParams{
				UserID:   "user-1",
				Amount:   -1,
				Category: "Others",
				Type:     TypeExpense,
			},
			wantErr: true,
		},
		{
			name: "invalid type",
			params: CreateParams{
				UserID:   "user-1",
				Amount:   10,
				Category: "Others",
				Type:     "transfer",
			},
			wantErr: true,
		},
		{
			name: "missing user",
			params: CreateParams{
				Amount:   10,
				Category: "Others",
				Type:     TypeExpense,
			},
			wantErr: true,
		},
		{
			name: "unknown category",
			params: CreateParams{
				UserID:   "user-1",
				Amount:   10,
				Category: "Crypto",
				Type:     TypeExpense,
			},
			wantErr: true,
		},
		{
			name: "missing category",
			params: CreateParams{
				UserID: "user-1",
				Amount: 10,
				Type:   TypeExpense,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 123456789, time.UTC)
	ts := NewTimestamp(now)

	if ts.Seconds != now.Unix() {
		t.Errorf("Seconds = %d, want %d", ts.Seconds, now.Unix())
	}
	if ts.Nanoseconds != 123456789 {
		t.Errorf("Nanoseconds = %d, want 123456789", ts.Nanoseconds)
	}
	if got := ts.Time(); !got.Equal(now) {
		t.Errorf("Time() = %v, want %v", got, now)
	}
}

func TestTimestamp_Before(t *testing.T) {
	tests := []struct {
		name string
		a, b Timestamp
		want bool
	}{
		{"earlier seconds", Timestamp{Seconds: 1}, Timestamp{Seconds: 2}, true},
		{"later seconds", Timestamp{Seconds: 2}, Timestamp{Seconds: 1}, false},
		{"equal seconds earlier nanos", Timestamp{Seconds: 1, Nanoseconds: 5}, Timestamp{Seconds: 1, Nanoseconds: 9}, true},
		{"identical", Timestamp{Seconds: 1, Nanoseconds: 5}, Timestamp{Seconds: 1, Nanoseconds: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.want {
				t.Errorf("Before() = %v, want %v", got, tt.want)
			}
		})
	}
}
