package transaction

import "sort"

// Summary holds the totals derived from a transaction list.
type Summary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Aggregate computes income, expense and balance totals. It is pure and
// order-independent; callers recompute it on every list change.
func Aggregate(txs []*Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		if tx.Type == TypeIncome {
			s.Income += tx.Amount
		} else {
			s.Expense += tx.Amount
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}

// DailyTotal is the income/expense rollup for one calendar day.
type DailyTotal struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// DailyTotals groups transactions by calendar day (UTC), oldest day first.
func DailyTotals(txs []*Transaction) []DailyTotal {
	byDay := make(map[string]*DailyTotal)
	for _, tx := range txs {
		day := tx.Date.Time().Format("2006-01-02")
		dt, ok := byDay[day]
		if !ok {
			dt = &DailyTotal{Date: day}
			byDay[day] = dt
		}
		if tx.Type == TypeIncome {
			dt.Income += tx.Amount
		} else {
			dt.Expense += tx.Amount
		}
	}

	out := make([]DailyTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SortByDateDesc orders transactions newest first. Equal timestamps keep
// their existing relative order.
func SortByDateDesc(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[j].Date.Before(txs[i].Date)
	})
}
