package memory

import (
	"github.com/frods/trufflepig/internal/adapters/driven/config/kv"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory implementation of driven.ConfigStore for testing.
type ConfigStore struct {
	*kv.Values
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{Values: kv.New()}
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.Values.Set(key, value)
	return nil
}

// Delete removes a configuration value.
func (s *ConfigStore) Delete(key string) error {
	s.Values.Delete(key)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path returns the configuration file path.
func (s *ConfigStore) Path() string { return ":memory:" }
