package store

import (
	"context"
	"sync"

	"github.com/mikey/mail-ledger/internal/core"
)

// MemoryStore is an in-memory implementation of the LedgerStore and
// StatsStore interfaces, used for tests and dry runs
type MemoryStore struct {
	mu      sync.Mutex
	records []core.ContactRecord
	stats   core.GlobalStats
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored records
func (s *MemoryStore) Load(_ context.Context) ([]core.ContactRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ContactRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Save replaces the stored records
func (s *MemoryStore) Save(_ context.Context, records []core.ContactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]core.ContactRecord, len(records))
	copy(s.records, records)
	return nil
}

// LoadStats returns the stored statistics
func (s *MemoryStore) LoadStats(_ context.Context) (core.GlobalStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

// SaveStats replaces the stored statistics
func (s *MemoryStore) SaveStats(_ context.Context, stats core.GlobalStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

// StatsStore adapts the memory store to the core.StatsStore interface
func (s *MemoryStore) StatsStore() core.StatsStore {
	return &memoryStatsStore{s}
}

type memoryStatsStore struct {
	s *MemoryStore
}

func (w *memoryStatsStore) Load(ctx context.Context) (core.GlobalStats, error) {
	return w.s.LoadStats(ctx)
}

func (w *memoryStatsStore) Save(ctx context.Context, stats core.GlobalStats) error {
	return w.s.SaveStats(ctx, stats)
}
