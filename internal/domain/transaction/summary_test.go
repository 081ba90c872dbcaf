package transaction

import (
	"math/rand"
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		txs  []*Transaction
		want Summary
	}{
		{
			name: "empty list",
			txs:  nil,
			want: Summary{},
		},
		{
			name: "salary and rent",
			txs: []*Transaction{
				{Type: TypeIncome, Amount: 5000, Description: "Salary"},
				{Type: TypeExpense, Amount: 1500, Description: "Rent"},
			},
			want: Summary{Income: 5000, Expense: 1500, Balance: 3500},
		},
		{
			name: "expenses only",
			txs: []*Transaction{
				{Type: TypeExpense, Amount: 20},
				{Type: TypeExpense, Amount: 30.5},
			},
			want: Summary{Income: 0, Expense: 50.5, Balance: -50.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.txs); got != tt.want {
				t.Errorf("Aggregate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	txs := []*Transaction{
		{Type: TypeIncome, Amount: 5000},
		{Type: TypeExpense, Amount: 1500},
		{Type: TypeExpense, Amount: 250},
		{Type: TypeIncome, Amount: 75},
	}
	want := Aggregate(txs)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]*Transaction, len(txs))
		copy(shuffled, txs)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := Aggregate(shuffled); got != want {
			t.Fatalf("Aggregate() after shuffle = %+v, want %+v", got, want)
		}
	}
}

func TestDailyTotals(t *testing.T) {
	day := func(d int, hour int) Timestamp {
		return NewTimestamp(time.Date(2025, 3, d, hour, 0, 0, 0, time.UTC))
	}

	txs := []*Transaction{
		{Type: TypeIncome, Amount: 100, Date: day(2, 9)},
		{Type: TypeExpense, Amount: 40, Date: day(2, 18)},
		{Type: TypeExpense, Amount: 10, Date: day(1, 12)},
	}

	got := DailyTotals(txs)
	want := []DailyTotal{
		{Date: "2025-03-01", Income: 0, Expense: 10},
		{Date: "2025-03-02", Income: 100, Expense: 40},
	}

	if len(got) != len(want) {
		t.Fatalf("DailyTotals() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DailyTotals()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSortByDateDesc(t *testing.T) {
	txs := []*Transaction{
		{ID: "a", Date: Timestamp{Seconds: 100}},
		{ID: "b", Date: Timestamp{Seconds: 300}},
		{ID: "c", Date: Timestamp{Seconds: 200}},
		{ID: "d", Date: Timestamp{Seconds: 300}}, // tie with b, insertion order kept
	}

	SortByDateDesc(txs)

	wantOrder := []string{"b", "d", "c", "a"}
	for i, id := range wantOrder {
		if txs[i].ID != id {
			t.Errorf("position %d = %q, want %q", i, txs[i].ID, id)
		}
	}
}
