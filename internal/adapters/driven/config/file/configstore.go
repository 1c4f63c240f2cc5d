package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/frods/trufflepig/internal/adapters/driven/config/kv"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFile is the name of the configuration file inside the config directory.
const ConfigFile = "config.toml"

// ConfigStore is a TOML file implementation of driven.ConfigStore.
// Every write is persisted before it returns.
type ConfigStore struct {
	*kv.Values

	// writeMu serialises persisting so the file matches the last write.
	writeMu  sync.Mutex
	filePath string
}

// DefaultConfigDir returns ~/.trufflepig.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".trufflepig"), nil
}

// NewConfigStore opens the config store in configDir, creating the
// directory if needed. An empty configDir means DefaultConfigDir.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		Values:   kv.New(),
		filePath: filepath.Join(configDir, ConfigFile),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores a value and persists the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.Values.Set(key, value)
	return s.save()
}

// Delete removes a value and persists the file. Deleting a missing key
// is not an error.
func (s *ConfigStore) Delete(key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.Values.Delete(key) {
		return nil
	}
	return s.save()
}

// Save persists the current configuration.
func (s *ConfigStore) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save()
}

func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load replaces the in-memory values with the file contents.
// A missing file loads as empty.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.Replace(flatten(loaded, ""))
	return nil
}

// flatten turns nested tables into dot-separated keys:
// [server] port = 1 becomes "server.port".
func flatten(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(nested, full) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
