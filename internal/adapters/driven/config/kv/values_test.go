package kv

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValues_GetString(t *testing.T) {
	v := New()
	v.Set("pattern", "*.json")
	v.Set("port", int64(3030))

	assert.Equal(t, "*.json", v.GetString("pattern"))
	assert.Empty(t, v.GetString("port"))
	assert.Empty(t, v.GetString("missing"))
}

func TestValues_GetInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 3030, 3030},
		{"int64 from toml", int64(8080), 8080},
		{"float64", 12.0, 12},
		{"string is not an int", "3030", 0},
		{"bool is not an int", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set("k", tt.value)
			assert.Equal(t, tt.want, v.GetInt("k"))
		})
	}
	assert.Equal(t, 0, New().GetInt("missing"))
}

func TestValues_GetBool(t *testing.T) {
	v := New()
	v.Set("yes", true)
	v.Set("text", "true")

	assert.True(t, v.GetBool("yes"))
	assert.False(t, v.GetBool("text"))
	assert.False(t, v.GetBool("missing"))
}

func TestValues_GetStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"string slice", []string{"/a", "/b"}, []string{"/a", "/b"}},
		{"toml array", []any{"/a", 1, "/b"}, []string{"/a", "/b"}},
		{"single string", "/a", []string{"/a"}},
		{"number", int64(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set("paths", tt.value)
			assert.Equal(t, tt.want, v.GetStringSlice("paths"))
		})
	}
	assert.Nil(t, New().GetStringSlice("missing"))
}

func TestValues_GetStringSlice_ReturnsCopy(t *testing.T) {
	v := New()
	v.Set("paths", []string{"/a"})

	got := v.GetStringSlice("paths")
	got[0] = "/changed"

	assert.Equal(t, []string{"/a"}, v.GetStringSlice("paths"))
}

func TestValues_GetDuration(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   time.Duration
		wantOK bool
	}{
		{"duration string", "250ms", 250 * time.Millisecond, true},
		{"seconds", "30s", 30 * time.Second, true},
		{"integer milliseconds", int64(100), 100 * time.Millisecond, true},
		{"bad string", "soon", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set("debounce", tt.value)
			got, ok := v.GetDuration("debounce")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValues_DeleteAndKeys(t *testing.T) {
	v := New()
	v.Set("port", 1)
	v.Set("host", "x")
	v.Set("endpoint", "contracts")

	assert.Equal(t, []string{"endpoint", "host", "port"}, v.Keys())
	assert.True(t, v.Delete("host"))
	assert.False(t, v.Delete("host"))
	assert.Equal(t, []string{"endpoint", "port"}, v.Keys())
}

func TestValues_SnapshotIsolation(t *testing.T) {
	v := New()
	v.Set("a", "1")

	snap := v.Snapshot()
	snap["a"] = "2"

	assert.Equal(t, "1", v.GetString("a"))
}

func TestValues_Replace(t *testing.T) {
	v := New()
	v.Set("a", "1")

	v.Replace(map[string]any{"b": "2"})
	assert.Equal(t, []string{"b"}, v.Keys())

	v.Replace(nil)
	assert.Empty(t, v.Keys())
	v.Set("c", "3")
	assert.Equal(t, "3", v.GetString("c"))
}

func TestValues_Concurrency(t *testing.T) {
	v := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			v.Set(fmt.Sprintf("k%d", i), i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = v.GetInt(fmt.Sprintf("k%d", i))
			_ = v.Keys()
		}(i)
	}
	wg.Wait()

	assert.Len(t, v.Keys(), 20)
}
