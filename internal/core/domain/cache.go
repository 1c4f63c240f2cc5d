package domain

// RootState is the lifecycle state of one watched root directory.
type RootState string

const (
	// RootUninitialized is the state before setup begins.
	RootUninitialized RootState = "uninitialized"

	// RootScanning means existing files are being enumerated and indexed.
	RootScanning RootState = "scanning"

	// RootWatching means the root is live and changes are being applied.
	RootWatching RootState = "watching"

	// RootUnavailable is terminal: the root could not be watched.
	RootUnavailable RootState = "unavailable"
)

// IsTerminal reports whether no further transitions can happen.
func (s RootState) IsTerminal() bool {
	return s == RootUnavailable
}

// RootStatus describes one watched root.
type RootStatus struct {
	// Path is the absolute root directory.
	Path string `json:"path"`

	// State is the current lifecycle state.
	State RootState `json:"state"`

	// Error is the setup failure for unavailable roots.
	Error string `json:"error,omitempty"`

	// Files is the number of files indexed during the initial scan.
	Files int `json:"files"`
}

// CacheStats is a point-in-time summary of the cache.
type CacheStats struct {
	// Records is the number of indexed paths.
	Records int `json:"records"`

	// Identities is the number of visible identities.
	Identities int `json:"identities"`

	// Dropped is the number of notifications dropped on full subscriber buffers.
	Dropped uint64 `json:"dropped"`

	// Subscribers is the number of open notification subscriptions.
	Subscribers int `json:"subscribers"`
}
