package driving

import (
	"context"

	"github.com/frods/trufflepig/internal/core/domain"
)

// CacheService is the artifact cache as seen by request handling, the CLI and the TUI.
type CacheService interface {
	// Query returns the first record matching every criterion, or nil.
	// Only structurally invalid criteria produce an error.
	Query(criteria map[string]string) (*domain.ArtifactRecord, error)

	// Artifact returns the visible record for an identity.
	Artifact(identity string) (*domain.ArtifactRecord, bool)

	// ListIdentities returns every known identity sorted lexicographically.
	ListIdentities() []string

	// Subscribe opens a notification subscription with the given buffer.
	// A non-positive buffer uses the configured default.
	Subscribe(buffer int) Subscription

	// Roots returns the state of each watched root.
	Roots() []domain.RootStatus

	// Stats returns a summary of the index and notifier.
	Stats() domain.CacheStats

	// Reconcile rescans every watching root against the index.
	Reconcile(ctx context.Context) error

	// Shutdown stops all watching activity. Idempotent.
	Shutdown() error
}

// Subscription delivers cache notifications.
// Notifications that do not fit in the buffer are dropped.
type Subscription interface {
	// ID identifies the subscription.
	ID() string

	// C returns the notification channel. It is closed by Close or cache shutdown.
	C() <-chan domain.Notification

	// Close ends the subscription. Idempotent.
	Close()
}

// EventHistory exposes recorded notifications.
type EventHistory interface {
	// Recent returns up to limit notifications, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Notification, error)
}
