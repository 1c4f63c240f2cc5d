package domain

import "path/filepath"

const unknownDescription = "Unknown"

// JournalBackend selects where published notifications are recorded.
type JournalBackend string

// Available journal backends.
const (
	// JournalMemory keeps recent notifications in a fixed-size ring.
	JournalMemory JournalBackend = "memory"

	// JournalSQLite persists notifications in a local SQLite database.
	JournalSQLite JournalBackend = "sqlite"

	// JournalOff disables recording.
	JournalOff JournalBackend = "off"
)

// IsValid returns true if the backend is recognised.
func (b JournalBackend) IsValid() bool {
	switch b {
	case JournalMemory, JournalSQLite, JournalOff:
		return true
	default:
		return false
	}
}

// String returns the string representation of the backend.
func (b JournalBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b JournalBackend) Description() string {
	switch b {
	case JournalMemory:
		return "In memory (lost on exit)"
	case JournalSQLite:
		return "SQLite (kept across restarts)"
	case JournalOff:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// JournalSettings configures the notification journal.
type JournalSettings struct {
	Backend JournalBackend

	// Dir holds the SQLite database. Empty means ~/.trufflepig/data.
	Dir string

	// Size is the number of notifications retained.
	Size int
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Cache   CacheConfig
	Server  ServerConfig
	Journal JournalSettings
}

// DefaultAppSettings returns settings with every default applied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Cache:  DefaultCacheConfig(),
		Server: DefaultServerConfig(),
		Journal: JournalSettings{
			Backend: JournalMemory,
			Size:    DefaultJournalSize,
		},
	}
}

// JournalPath returns the SQLite database file for the journal settings.
// It is empty when Dir is empty.
func (s JournalSettings) JournalPath() string {
	if s.Dir == "" {
		return ""
	}
	return filepath.Join(s.Dir, "journal.db")
}

// Setting describes one configuration key.
type Setting struct {
	Key         string
	Value       string
	Default     string
	Description string

	// IsSet is true when the value comes from the config file.
	IsSet bool
}
