package recolog

import (
	"context"
	"sync"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

const defaultLimit = 20

// MemoryRepository keeps a bounded, newest-last log in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	entries  []outfit.LogEntry
	capacity int
}

// NewMemoryRepository constructs a log that retains at most capacity entries.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryRepository{capacity: capacity}
}

// Append implements outfit.LogRepository.
func (r *MemoryRepository) Append(_ context.Context, entry outfit.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if overflow := len(r.entries) - r.capacity; overflow > 0 {
		r.entries = append([]outfit.LogEntry(nil), r.entries[overflow:]...)
	}
	return nil
}

// Recent returns entries newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]outfit.LogEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]outfit.LogEntry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

var _ outfit.LogRepository = (*MemoryRepository)(nil)
