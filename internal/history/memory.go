package history

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps history in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	nextID      int64
	records     []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.nextID = 1
	return nil
}

func (s *MemoryStore) Append(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		storeOps.WithLabelValues("append", "error").Inc()
		return Record{}, errNotInitialized
	}

	rec.ID = s.nextID
	rec.Inputs = slices.Clone(rec.Inputs)
	s.nextID++
	s.records = append(s.records, rec)

	storeOps.WithLabelValues("append", "ok").Inc()
	return cloneRecord(rec), nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		storeOps.WithLabelValues("list", "error").Inc()
		return nil, errNotInitialized
	}

	out := make([]Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, cloneRecord(s.records[i]))
	}

	storeOps.WithLabelValues("list", "ok").Inc()
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneRecord(rec Record) Record {
	rec.Inputs = slices.Clone(rec.Inputs)
	return rec
}
