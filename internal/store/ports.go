// Package store declares the persistence port the screens depend on.
package store

import (
	"context"
	"errors"

	"manageexpense/internal/core"
)

// ErrNotFound is returned when no expense has the requested ID.
var ErrNotFound = errors.New("expense not found")

// Ports for outbound adapters.
type (
	ExpenseReader interface {
		Get(ctx context.Context, id string) (core.Expense, error)
		// List returns every expense, newest date first.
		List(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseWriter interface {
		Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
		Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error)
		Delete(ctx context.Context, id string) error
	}

	// Store is the full read/write surface of an expense store.
	Store interface {
		ExpenseReader
		ExpenseWriter
	}
)
