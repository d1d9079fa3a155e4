// Package history persists completed calculations as an append-only log.
//
// Records are never updated or deleted. IDs are assigned by the store and
// increase monotonically, so listing by descending ID yields the newest
// calculation first.
package history

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPersistence    = errors.New("persistence failure")
	ErrNotInitialized = errors.New("history store is not initialized")
)

// errNotInitialized is what backends return when used before Init. It
// matches both ErrPersistence and ErrNotInitialized.
var errNotInitialized = fmt.Errorf("%w: %w", ErrPersistence, ErrNotInitialized)

// Record is one persisted calculation.
type Record struct {
	ID        int64     `json:"id"`
	Inputs    []float64 `json:"inputs"`
	Operation string    `json:"operation"`
	Result    float64   `json:"result"`
}

// Store is the persistence contract for calculation history.
type Store interface {
	// Init prepares the backend. It is safe to call more than once.
	Init(ctx context.Context) error
	// Append stores rec and returns it with its assigned ID. Any ID set on
	// rec is ignored.
	Append(ctx context.Context, rec Record) (Record, error)
	// ListAll returns every record, newest first.
	ListAll(ctx context.Context) ([]Record, error)
	Close() error
}
