package domain

import (
	"fmt"
	"time"
)

// FileEventKind is the kind of change reported by a watch source.
type FileEventKind int

const (
	// FileCreated indicates a matching file appeared.
	FileCreated FileEventKind = iota

	// FileModified indicates a known file's content settled after writes.
	FileModified

	// FileRemoved indicates a known file disappeared.
	FileRemoved

	// FileError indicates the watch backend reported a failure.
	FileError
)

// String returns the kind name.
func (k FileEventKind) String() string {
	switch k {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileRemoved:
		return "removed"
	case FileError:
		return "error"
	default:
		return fmt.Sprintf("FileEventKind(%d)", int(k))
	}
}

// FileEvent is one debounced change from a watch source.
type FileEvent struct {
	// Path is the absolute file path. Empty for backend errors.
	Path string

	// Kind is the change kind.
	Kind FileEventKind

	// Err is set for FileError events.
	Err error
}

// NotificationKind is the kind of cache lifecycle notification.
type NotificationKind string

const (
	// NotifyAdded is published when a path is indexed for the first time.
	NotifyAdded NotificationKind = "added"

	// NotifyChanged is published when an indexed path is re-parsed with new content.
	NotifyChanged NotificationKind = "changed"

	// NotifyRemoved is published when an indexed path stops providing a record.
	NotifyRemoved NotificationKind = "removed"

	// NotifyError is published for parse failures and root failures.
	NotifyError NotificationKind = "error"
)

// Notification is a lifecycle event published by the cache.
type Notification struct {
	// ID uniquely identifies the notification.
	ID string

	// Kind is the lifecycle event.
	Kind NotificationKind

	// Path is the file path, or the root directory for root failures.
	Path string

	// Identity is the component affected, when known.
	Identity string

	// Reason describes the failure for NotifyError.
	Reason string

	// Time is when the notification was published.
	Time time.Time
}

// String renders the notification for logs.
func (n Notification) String() string {
	if n.Kind == NotifyError {
		return fmt.Sprintf("%s %s: %s", n.Kind, n.Path, n.Reason)
	}
	return fmt.Sprintf("%s %s", n.Kind, n.Path)
}
