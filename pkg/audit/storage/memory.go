package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/audit"
)

// MemoryStore keeps decision records in memory, ordered by timestamp.
// Intended for development and tests; records do not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*audit.DecisionRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Write appends a copy of the record.
func (s *MemoryStore) Write(_ context.Context, record *audit.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteBefore removes records with a timestamp before the cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// DeleteOldest removes the n oldest records.
func (s *MemoryStore) DeleteOldest(_ context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.records) == 0 {
		return 0, nil
	}

	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Timestamp.Before(s.records[j].Timestamp)
	})

	if n > int64(len(s.records)) {
		n = int64(len(s.records))
	}
	s.records = s.records[n:]
	return n, nil
}

// Records returns a snapshot of all stored records, oldest first.
func (s *MemoryStore) Records() []*audit.DecisionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*audit.DecisionRecord, len(s.records))
	copy(out, s.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
