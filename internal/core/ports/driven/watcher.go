package driven

import (
	"context"

	"github.com/frods/trufflepig/internal/core/domain"
)

// WatchSource observes directory trees for artifact files.
type WatchSource interface {
	// Add begins watching root and every directory below it.
	// Failures are *domain.WatchSetupError; other roots are unaffected.
	Add(root string) error

	// Scan enumerates the matching files currently under root and marks
	// them as known, so later writes report as modified.
	Scan(ctx context.Context, root string) ([]string, error)

	// Resync walks root and feeds every difference from the known state
	// through the debounced event stream.
	Resync(ctx context.Context, root string) error

	// Events returns the debounced event stream. It is closed by Close.
	Events() <-chan domain.FileEvent

	// Close stops watching and releases watch resources. Idempotent.
	Close() error
}
