// Package kv holds the typed key/value map shared by the config stores.
package kv

import (
	"sort"
	"sync"
	"time"
)

// Values is a concurrency-safe map of configuration values with typed
// accessors. Values decoded from TOML arrive as int64, float64, string,
// bool or []any; accessors accept those and their native Go forms.
type Values struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates an empty value map.
func New() *Values {
	return &Values{data: make(map[string]any)}
}

// Get returns the raw value for key.
func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

// GetString returns the value as a string, or "".
func (v *Values) GetString(key string) string {
	val, _ := v.Get(key)
	s, _ := val.(string)
	return s
}

// GetInt returns the value as an int, or 0.
func (v *Values) GetInt(key string) int {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// GetBool returns the value as a bool, or false.
func (v *Values) GetBool(key string) bool {
	val, _ := v.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice returns the value as a string slice. A single string
// is returned as a one-element slice. Non-string elements are skipped.
func (v *Values) GetStringSlice(key string) []string {
	val, ok := v.Get(key)
	if !ok {
		return nil
	}
	switch s := val.(type) {
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{s}
	default:
		return nil
	}
}

// GetDuration parses a duration string such as "250ms".
// Integers are taken as milliseconds.
func (v *Values) GetDuration(key string) (time.Duration, bool) {
	val, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	switch d := val.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		return parsed, err == nil
	case int64:
		return time.Duration(d) * time.Millisecond, true
	case int:
		return time.Duration(d) * time.Millisecond, true
	case time.Duration:
		return d, true
	default:
		return 0, false
	}
}

// Set stores a value.
func (v *Values) Set(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
}

// Delete removes a value. It reports whether the key existed.
func (v *Values) Delete(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.data[key]
	delete(v.data, key)
	return ok
}

// Keys returns every key, sorted.
func (v *Values) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.data))
	for k := range v.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the underlying map.
func (v *Values) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.data))
	for k, val := range v.data {
		out[k] = val
	}
	return out
}

// Replace swaps in a new map.
func (v *Values) Replace(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = data
}
