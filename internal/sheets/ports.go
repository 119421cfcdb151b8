// Package sheets defines the spreadsheet mirror that the sync worker keeps
// in step with the expense store.
package sheets

import (
	"context"

	"manageexpense/internal/core"
)

// Mirror holds one row per expense, keyed by expense ID.
type Mirror interface {
	// Upsert writes e unless the mirror already holds the same or a newer
	// version of it.
	Upsert(ctx context.Context, e core.Expense) error
	// Delete removes the row of id. A missing row is not an error.
	Delete(ctx context.Context, id string) error
}
