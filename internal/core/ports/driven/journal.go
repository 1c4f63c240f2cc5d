package driven

import (
	"context"

	"github.com/frods/trufflepig/internal/core/domain"
)

// EventJournal records published notifications for diagnostics.
// It never feeds the index.
type EventJournal interface {
	// Append records a notification.
	Append(ctx context.Context, n domain.Notification) error

	// Recent returns up to limit notifications, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Notification, error)

	// Close releases resources.
	Close() error
}
