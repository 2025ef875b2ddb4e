package store

import (
	"context"
	"sync"

	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

const defaultMemoryCapacity = 1024

// MemoryUsageStore keeps the most recent entries in a bounded ring.
type MemoryUsageStore struct {
	mu       sync.RWMutex
	entries  []domain.UsageLog
	capacity int
}

func NewMemoryUsageStore(capacity int) *MemoryUsageStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryUsageStore{capacity: capacity}
}

func (s *MemoryUsageStore) Record(_ context.Context, entry domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryUsageStore) Recent(_ context.Context, limit int) ([]domain.UsageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]domain.UsageLog, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}
