package driving

import "github.com/frods/trufflepig/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults.
	Get() (*domain.AppSettings, error)

	// Set validates and stores a value for a known key.
	Set(key, value string) error

	// Unset removes a stored value so the default applies again.
	Unset(key string) error

	// Value returns the effective value of a key as text.
	Value(key string) (string, error)

	// List describes every known key in display order.
	List() []domain.Setting
}
