package history

import (
	"context"
	"fmt"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// NewStore builds the backend named by kind. The store is not initialized.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", BackendSQLite:
		return NewSQLiteStore(sqlitePath), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// Open builds and initializes the backend named by kind.
func Open(ctx context.Context, kind, sqlitePath string) (Store, error) {
	store, err := NewStore(kind, sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init %s store: %w", kind, err)
	}
	return store, nil
}
