// Package backend turns configuration into a ready expense store.
package backend

import (
	"errors"

	"manageexpense/internal/config"
	"manageexpense/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the service and the function releasing what it
// opened.
type BackendResult struct {
	Service *services.ExpenseService
	// Type is the backend actually created.
	Type    BackendType
	Cleanup CleanupFunc
}

var ErrUnsupportedBackend = errors.New("unsupported backend type")

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = config.BackendSQLite
	MemoryBackend BackendType = config.BackendMemory
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
