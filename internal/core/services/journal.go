package services

import (
	"context"
	"time"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/logger"
)

// Ensure JournalRecorder implements the interface.
var _ driving.EventHistory = (*JournalRecorder)(nil)

// journalWriteTimeout bounds a single journal append.
const journalWriteTimeout = 5 * time.Second

// JournalRecorder copies published notifications into an event journal.
type JournalRecorder struct {
	journal driven.EventJournal
	sub     driving.Subscription
	done    chan struct{}
}

// NewJournalRecorder subscribes to the notifier and starts recording.
// Recording stops when the subscription is closed.
func NewJournalRecorder(journal driven.EventJournal, notifier *Notifier, buffer int) *JournalRecorder {
	r := &JournalRecorder{
		journal: journal,
		sub:     notifier.Subscribe(buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *JournalRecorder) run() {
	defer close(r.done)
	for n := range r.sub.C() {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		if err := r.journal.Append(ctx, n); err != nil {
			logger.Warn("Failed to journal %s: %v", n, err)
		}
		cancel()
	}
}

// Recent returns up to limit recorded notifications, newest first.
func (r *JournalRecorder) Recent(ctx context.Context, limit int) ([]domain.Notification, error) {
	return r.journal.Recent(ctx, limit)
}

// Stop ends the subscription and waits for pending writes.
func (r *JournalRecorder) Stop() {
	r.sub.Close()
	<-r.done
}
