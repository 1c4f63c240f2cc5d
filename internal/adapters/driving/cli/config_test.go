package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frods/trufflepig/internal/core/domain"
)

func TestConfigList(t *testing.T) {
	useMemorySettings(t)

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "paths")
	assert.Contains(t, out, "journal_size")
	assert.Contains(t, out, "3030")
	assert.Contains(t, out, "default")
}

func TestConfig_DefaultsToList(t *testing.T) {
	useMemorySettings(t)

	out, err := execute(t, "config")

	require.NoError(t, err)
	assert.Contains(t, out, "endpoint")
}

func TestConfigSetGetUnset(t *testing.T) {
	store := useMemorySettings(t)

	out, err := execute(t, "config", "set", "port", "8080")
	require.NoError(t, err)
	assert.Contains(t, out, "port = 8080")
	assert.Equal(t, 8080, store.GetInt("port"))

	out, err = execute(t, "config", "get", "port")
	require.NoError(t, err)
	assert.Equal(t, "8080\n", out)

	out, err = execute(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "config")

	out, err = execute(t, "config", "unset", "port")
	require.NoError(t, err)
	assert.Contains(t, out, "port reset to default")

	out, err = execute(t, "config", "get", "port")
	require.NoError(t, err)
	assert.Equal(t, "3030\n", out)
}

func TestConfigSet_Paths(t *testing.T) {
	store := useMemorySettings(t)

	_, err := execute(t, "config", "set", "paths", "/a,/b")

	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, store.GetStringSlice("paths"))
}

func TestConfig_Errors(t *testing.T) {
	useMemorySettings(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "get", "colour"}},
		{"bad value", []string{"config", "set", "debounce", "soon"}},
		{"unset unknown", []string{"config", "unset", "colour"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestConfig_ArgCounts(t *testing.T) {
	useMemorySettings(t)

	_, err := execute(t, "config", "set", "port")
	assert.Error(t, err)

	_, err = execute(t, "config", "get")
	assert.Error(t, err)
}
