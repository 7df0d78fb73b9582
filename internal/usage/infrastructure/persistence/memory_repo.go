// Package persistence provides usage record repositories over the
// deployment targets: Redis (primary KV), PostgreSQL (server mode),
// SQLite (embedded/local mode), and an in-memory store for tests.
package persistence

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/careerlift/quota/internal/usage/domain"
)

// MemoryRepository keeps usage records in a map. Records round-trip through
// JSON on every access so tests observe the same serialization behavior as
// the real backends.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]byte
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID][]byte)}
}

// Get returns the stored record, or (nil, nil) when absent.
func (r *MemoryRepository) Get(_ context.Context, userID uuid.UUID) (*domain.UsageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, ok := r.records[userID]
	if !ok {
		return nil, nil
	}

	var rec domain.UsageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil
	}
	return &rec, nil
}

// Put stores the record.
func (r *MemoryRepository) Put(_ context.Context, rec *domain.UsageRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.UserID] = raw
	return nil
}

// Len reports the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
