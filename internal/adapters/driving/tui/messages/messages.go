// Package messages defines Bubbletea message types for the monitor.
package messages

import (
	"github.com/frods/trufflepig/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewArtifacts lists identities beside the selected artifact.
	ViewArtifacts ViewType = iota
	// ViewEvents shows the notification feed.
	ViewEvents
	// ViewHelp shows the keybindings.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewArtifacts:
		return "artifacts"
	case ViewEvents:
		return "events"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// NotificationReceived carries one notification from the cache subscription.
type NotificationReceived struct {
	Notification domain.Notification
}

// SubscriptionClosed signals the cache closed the subscription.
type SubscriptionClosed struct{}

// SnapshotLoaded carries the current cache state.
type SnapshotLoaded struct {
	Identities []string
	Roots      []domain.RootStatus
	Stats      domain.CacheStats
}

// HistoryLoaded carries notifications recorded before the monitor started.
type HistoryLoaded struct {
	Notifications []domain.Notification
	Err           error
}

// ReconcileCompleted signals an on-demand rescan finished.
type ReconcileCompleted struct {
	Err error
}
