package store

import (
	"sort"

	"manageexpense/internal/core"
)

// SortNewestFirst orders expenses by date descending, then by creation time
// descending so entries on the same day keep a stable order.
func SortNewestFirst(items []core.Expense) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
