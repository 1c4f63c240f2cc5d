package memory

import (
	"context"
	"sync"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// Ensure Journal implements the interface.
var _ driven.EventJournal = (*Journal)(nil)

// Journal is a fixed-size in-memory implementation of driven.EventJournal.
// Once full, the oldest notification is overwritten.
type Journal struct {
	mu      sync.RWMutex
	entries []domain.Notification
	next    int
	full    bool
}

// NewJournal creates a journal holding up to size notifications.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = domain.DefaultJournalSize
	}
	return &Journal{entries: make([]domain.Notification, size)}
}

// Append records a notification.
func (j *Journal) Append(_ context.Context, n domain.Notification) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[j.next] = n
	j.next = (j.next + 1) % len(j.entries)
	if j.next == 0 {
		j.full = true
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
func (j *Journal) Recent(_ context.Context, limit int) ([]domain.Notification, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	count := j.next
	if j.full {
		count = len(j.entries)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	result := make([]domain.Notification, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (j.next - 1 - i + len(j.entries)) % len(j.entries)
		result = append(result, j.entries[idx])
	}
	return result, nil
}

// Close is a no-op.
func (j *Journal) Close() error {
	return nil
}
