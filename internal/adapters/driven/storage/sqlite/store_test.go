package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frods/trufflepig/internal/core/domain"
)

// setupTestStore creates a temporary SQLite journal for testing.
func setupTestStore(t *testing.T, maxEntries int) (*Store, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewStore(tempDir, maxEntries)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store, tempDir
}

func testNotification(i int, kind domain.NotificationKind) domain.Notification {
	return domain.Notification{
		ID:       fmt.Sprintf("id-%d", i),
		Kind:     kind,
		Path:     fmt.Sprintf("/build/contracts/C%d.json", i),
		Identity: fmt.Sprintf("C%d", i),
		Time:     time.Unix(1700000000+int64(i), 0),
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t, 0)

	assert.Equal(t, filepath.Join(dir, "journal.db"), store.Path())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsMigrationVersion(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, first.Append(context.Background(), testNotification(1, domain.NotifyAdded)))
	require.NoError(t, first.Close())

	second, err := NewStore(dir, 0)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_AppendAndRecent(t *testing.T) {
	store, _ := setupTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testNotification(1, domain.NotifyAdded)))
	require.NoError(t, store.Append(ctx, testNotification(2, domain.NotifyChanged)))
	errNote := testNotification(3, domain.NotifyError)
	errNote.Reason = "parse artifact: malformed-document"
	require.NoError(t, store.Append(ctx, errNote))

	got, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "id-3", got[0].ID)
	assert.Equal(t, domain.NotifyError, got[0].Kind)
	assert.Equal(t, "parse artifact: malformed-document", got[0].Reason)
	assert.Equal(t, "C3", got[0].Identity)
	assert.True(t, got[0].Time.Equal(time.Unix(1700000003, 0)))
	assert.Equal(t, "id-1", got[2].ID)

	got, err = store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id-3", got[0].ID)
}

func TestStore_Append_DuplicateIDIgnored(t *testing.T) {
	store, _ := setupTestStore(t, 0)
	ctx := context.Background()

	n := testNotification(1, domain.NotifyAdded)
	require.NoError(t, store.Append(ctx, n))
	require.NoError(t, store.Append(ctx, n))

	got, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_Append_Prunes(t *testing.T) {
	store, _ := setupTestStore(t, 3)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		require.NoError(t, store.Append(ctx, testNotification(i, domain.NotifyAdded)))
	}

	got, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "id-6", got[0].ID)
	assert.Equal(t, "id-4", got[2].ID)
}

func TestPending_OrdersAndSkipsApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql":           {Data: []byte("SELECT 1;")},
		"002_second.up.sql":          {Data: []byte("SELECT 1;")},
		"001_notifications.up.sql":   {Data: []byte("SELECT 1;")},
		"001_notifications.down.sql": {Data: []byte("SELECT 1;")},
		"notes.up.sql":               {Data: []byte("SELECT 1;")},
	}

	got, err := pending(fsys, 1)

	require.NoError(t, err)
	assert.Equal(t, []migration{
		{version: 2, name: "002_second.up.sql"},
		{version: 10, name: "010_later.up.sql"},
	}, got)
}
