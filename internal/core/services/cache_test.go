package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frods/trufflepig/internal/adapters/driven/storage/memory"
	"github.com/frods/trufflepig/internal/connectors/filesystem"
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/parsers"
)

// --- Fake watch source ---

// fakeSource implements driven.WatchSource. Scan lists *.json files
// directly under the root; events are injected by the test.
type fakeSource struct {
	mu        sync.Mutex
	addErr    map[string]error
	resyncErr map[string]error
	added     []string
	resyncs   []string
	events    chan domain.FileEvent
	closed    bool
}

var _ driven.WatchSource = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{
		addErr:    make(map[string]error),
		resyncErr: make(map[string]error),
		events:    make(chan domain.FileEvent, 16),
	}
}

func (f *fakeSource) Add(root string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.addErr[root]; err != nil {
		return &domain.WatchSetupError{Root: root, Err: err}
	}
	f.added = append(f.added, root)
	return nil
}

func (f *fakeSource) Scan(_ context.Context, root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (f *fakeSource) Resync(_ context.Context, root string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resyncs = append(f.resyncs, root)
	return f.resyncErr[root]
}

func (f *fakeSource) Events() <-chan domain.FileEvent { return f.events }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeSource) send(path string, kind domain.FileEventKind) {
	f.events <- domain.FileEvent{Path: path, Kind: kind}
}

// --- Helpers ---

func artifactJSON(identity, address string) string {
	return fmt.Sprintf(`{"contractName": %q, "networks": {"1": {"address": %q}}}`, identity, address)
}

func writeArtifact(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(roots ...string) domain.CacheConfig {
	cfg := domain.DefaultCacheConfig()
	cfg.Roots = roots
	cfg.ReconcileInterval = 0
	return cfg
}

func startTestCache(t *testing.T, src *fakeSource, deps CacheDeps, roots ...string) *ArtifactCache {
	t.Helper()
	deps.Source = src
	if deps.Parsers == nil {
		deps.Parsers = parsers.NewDefaultRegistry(domain.DefaultParserConfig())
	}
	if deps.Index == nil {
		deps.Index = memory.NewArtifactStore()
	}
	c, err := StartCache(context.Background(), testConfig(roots...), deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown() })
	return c
}

func nextNotification(t *testing.T, sub driving.Subscription) domain.Notification {
	t.Helper()
	select {
	case n, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return domain.Notification{}
	}
}

// --- Tests ---

func TestStartCache_IndexesExistingFiles(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "Token.json"), artifactJSON("Token", "0xABC"))
	writeArtifact(t, filepath.Join(root, "Registry.json"), `{"contractName": "Registry"}`)

	c := startTestCache(t, newFakeSource(), CacheDeps{}, root)

	assert.Equal(t, []string{"Registry", "Token"}, c.ListIdentities())

	rec, err := c.Query(map[string]string{"address": "0xabc"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Token", rec.Identity)
	assert.Equal(t, filepath.Join(root, "Token.json"), rec.SourcePath)
	assert.NotEmpty(t, rec.Digest)

	roots := c.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, domain.RootWatching, roots[0].State)
	assert.Equal(t, 2, roots[0].Files)
}

func TestStartCache_InvalidConfig(t *testing.T) {
	_, err := StartCache(context.Background(), testConfig(), CacheDeps{Source: newFakeSource()})
	assert.ErrorIs(t, err, domain.ErrNoRoots)
}

func TestStartCache_MissingDeps(t *testing.T) {
	_, err := StartCache(context.Background(), testConfig(t.TempDir()), CacheDeps{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStartCache_AllRootsFail(t *testing.T) {
	src := newFakeSource()
	root := t.TempDir()
	src.addErr[root] = errors.New("permission denied")

	_, err := StartCache(context.Background(), testConfig(root), CacheDeps{
		Source:  src,
		Parsers: parsers.NewDefaultRegistry(domain.DefaultParserConfig()),
		Index:   memory.NewArtifactStore(),
	})

	var serr *domain.StartupError
	require.True(t, errors.As(err, &serr))
	require.Len(t, serr.Failures, 1)
	assert.Equal(t, root, serr.Failures[0].Root)
	assert.ErrorIs(t, err, domain.ErrWatchSetup)
	assert.True(t, src.closed)
}

func TestStartCache_PartialRootFailure(t *testing.T) {
	src := newFakeSource()
	good := t.TempDir()
	bad := t.TempDir()
	src.addErr[bad] = errors.New("no such directory")
	writeArtifact(t, filepath.Join(good, "Token.json"), artifactJSON("Token", "0xabc"))

	c := startTestCache(t, src, CacheDeps{}, good, bad)

	states := map[string]domain.RootState{}
	for _, st := range c.Roots() {
		states[st.Path] = st.State
	}
	assert.Equal(t, domain.RootWatching, states[good])
	assert.Equal(t, domain.RootUnavailable, states[bad])
	assert.Equal(t, []string{"Token"}, c.ListIdentities())
}

func TestStartCache_DeduplicatesRoots(t *testing.T) {
	root := t.TempDir()
	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root, root+string(filepath.Separator))

	assert.Len(t, c.Roots(), 1)
	assert.Equal(t, []string{root}, src.added)
}

func TestArtifactCache_Lifecycle(t *testing.T) {
	root := t.TempDir()
	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)
	sub := c.Subscribe(16)
	defer sub.Close()

	path := filepath.Join(root, "Token.json")

	writeArtifact(t, path, artifactJSON("Token", "0xabc"))
	src.send(path, domain.FileCreated)
	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyAdded, n.Kind)
	assert.Equal(t, "Token", n.Identity)
	assert.Equal(t, path, n.Path)

	writeArtifact(t, path, artifactJSON("Token", "0xdef"))
	src.send(path, domain.FileModified)
	n = nextNotification(t, sub)
	assert.Equal(t, domain.NotifyChanged, n.Kind)

	rec, err := c.Query(map[string]string{"address": "0xdef"})
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Same bytes again: no changed notification.
	src.send(path, domain.FileModified)

	require.NoError(t, os.Remove(path))
	src.send(path, domain.FileRemoved)
	n = nextNotification(t, sub)
	assert.Equal(t, domain.NotifyRemoved, n.Kind)
	assert.Equal(t, "Token", n.Identity)
	assert.Empty(t, c.ListIdentities())
}

func TestArtifactCache_MalformedFileEvictsRecord(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Token.json")
	writeArtifact(t, path, artifactJSON("Token", "0xabc"))

	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)
	sub := c.Subscribe(16)
	defer sub.Close()
	require.Equal(t, []string{"Token"}, c.ListIdentities())

	writeArtifact(t, path, `{"contractName": "Tok`)
	src.send(path, domain.FileModified)

	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyError, n.Kind)
	assert.Equal(t, path, n.Path)
	assert.Contains(t, n.Reason, string(domain.ReasonMalformedDocument))
	assert.Empty(t, c.ListIdentities())

	// A fixed file is indexed again as new.
	writeArtifact(t, path, artifactJSON("Token", "0xabc"))
	src.send(path, domain.FileModified)
	n = nextNotification(t, sub)
	assert.Equal(t, domain.NotifyAdded, n.Kind)
}

func TestArtifactCache_MissingIdentityNotIndexed(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "Anon.json"), `{"networks": {}}`)

	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)

	assert.Empty(t, c.ListIdentities())
	assert.Equal(t, 0, c.Roots()[0].Files)
}

func TestArtifactCache_IdentityFallback(t *testing.T) {
	root := t.TempDir()
	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)
	sub := c.Subscribe(16)
	defer sub.Close()

	older := filepath.Join(root, "a.json")
	newer := filepath.Join(root, "b.json")

	writeArtifact(t, older, artifactJSON("Token", "0x111"))
	src.send(older, domain.FileCreated)
	nextNotification(t, sub)

	writeArtifact(t, newer, artifactJSON("Token", "0x222"))
	src.send(newer, domain.FileCreated)
	nextNotification(t, sub)

	rec, err := c.Query(map[string]string{"contractName": "Token"})
	require.NoError(t, err)
	assert.Equal(t, newer, rec.SourcePath)

	require.NoError(t, os.Remove(newer))
	src.send(newer, domain.FileRemoved)
	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyRemoved, n.Kind)

	rec, err = c.Query(map[string]string{"contractName": "Token"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, older, rec.SourcePath)
}

func TestArtifactCache_VanishedFileTreatedAsRemoved(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Token.json")
	writeArtifact(t, path, artifactJSON("Token", "0xabc"))

	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)
	sub := c.Subscribe(16)
	defer sub.Close()

	require.NoError(t, os.Remove(path))
	src.send(path, domain.FileModified)

	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyRemoved, n.Kind)
}

func TestArtifactCache_WatchErrorPublished(t *testing.T) {
	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, t.TempDir())
	sub := c.Subscribe(16)
	defer sub.Close()

	src.events <- domain.FileEvent{Kind: domain.FileError, Err: errors.New("queue overflow")}

	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyError, n.Kind)
	assert.Equal(t, "queue overflow", n.Reason)
}

func TestArtifactCache_Reconcile(t *testing.T) {
	good := t.TempDir()
	bad := t.TempDir()
	src := newFakeSource()
	src.addErr[bad] = errors.New("gone")
	c := startTestCache(t, src, CacheDeps{}, good, bad)

	require.NoError(t, c.Reconcile(context.Background()))

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, []string{good}, src.resyncs)
}

func TestArtifactCache_Stats(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "a.json"), artifactJSON("Token", "0x1"))
	writeArtifact(t, filepath.Join(root, "b.json"), artifactJSON("Token", "0x2"))
	writeArtifact(t, filepath.Join(root, "c.json"), artifactJSON("Registry", "0x3"))

	c := startTestCache(t, newFakeSource(), CacheDeps{}, root)
	sub := c.Subscribe(1)
	defer sub.Close()

	stats := c.Stats()
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 2, stats.Identities)
	assert.Equal(t, 1, stats.Subscribers)
}

func TestArtifactCache_Journal(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "Token.json"), artifactJSON("Token", "0xabc"))

	journal := memory.NewJournal(10)
	c := startTestCache(t, newFakeSource(), CacheDeps{Journal: journal}, root)

	require.Eventually(t, func() bool {
		recent, err := c.Recent(context.Background(), 10)
		return err == nil && len(recent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	recent, err := c.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, domain.NotifyAdded, recent[0].Kind)
	assert.Equal(t, "Token", recent[0].Identity)
}

func TestArtifactCache_RecentWithoutJournal(t *testing.T) {
	c := startTestCache(t, newFakeSource(), CacheDeps{}, t.TempDir())

	recent, err := c.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestArtifactCache_Shutdown(t *testing.T) {
	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, t.TempDir())
	sub := c.Subscribe(4)

	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.True(t, src.closed)
	assert.ErrorIs(t, c.Reconcile(context.Background()), domain.ErrCacheClosed)
}

func TestArtifactCache_ConcurrentQueries(t *testing.T) {
	root := t.TempDir()
	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)
	sub := c.Subscribe(256)
	defer sub.Close()

	stable := filepath.Join(root, "Registry.json")
	writeArtifact(t, stable, artifactJSON("Registry", "0xfeed"))
	src.send(stable, domain.FileCreated)
	nextNotification(t, sub)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				rec, err := c.Query(map[string]string{"contractName": "Registry"})
				if assert.NoError(t, err) && assert.NotNil(t, rec) {
					info, ok := rec.Deployments.Get("1")
					assert.True(t, ok)
					assert.Equal(t, "0xfeed", info.Address)
				}
			}
		}()
	}

	churn := filepath.Join(root, "Token.json")
	for i := 0; i < 20; i++ {
		writeArtifact(t, churn, artifactJSON("Token", fmt.Sprintf("0x%d", i)))
		src.send(churn, domain.FileModified)
		nextNotification(t, sub)
	}
	close(stop)
	wg.Wait()
}

// TestArtifactCache_EndToEnd runs the cache on the real filesystem watcher.
func TestArtifactCache_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "Token.json"), artifactJSON("Token", "0xabc"))

	watcher, err := filesystem.New(filesystem.Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	cfg := testConfig(root)
	c, err := StartCache(context.Background(), cfg, CacheDeps{
		Source:  watcher,
		Parsers: parsers.NewDefaultRegistry(cfg.Parser),
		Index:   memory.NewArtifactStore(),
	})
	require.NoError(t, err)
	defer func() { _ = c.Shutdown() }()

	rec, err := c.Query(map[string]string{"address": "0xabc"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Token", rec.Identity)

	rec, err = c.Query(map[string]string{"address": "0xdef"})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, []string{"Token"}, c.ListIdentities())

	sub := c.Subscribe(16)
	defer sub.Close()

	// Several quick writes settle into one change carrying the final content.
	path := filepath.Join(root, "Token.json")
	for i := 0; i < 5; i++ {
		writeArtifact(t, path, artifactJSON("Token", fmt.Sprintf("0xde%d", i)))
	}
	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyChanged, n.Kind)
	require.Eventually(t, func() bool {
		rec, err := c.Query(map[string]string{"address": "0xde4"})
		return err == nil && rec != nil
	}, 2*time.Second, 10*time.Millisecond)

	writeArtifact(t, filepath.Join(root, "Broken.json"), `{"contractName":`)
	n = waitForKind(t, sub, domain.NotifyError)
	assert.Equal(t, filepath.Join(root, "Broken.json"), n.Path)
	assert.Equal(t, []string{"Token"}, c.ListIdentities())

	require.NoError(t, os.Remove(path))
	n = waitForKind(t, sub, domain.NotifyRemoved)
	assert.Equal(t, "Token", n.Identity)
	assert.Empty(t, c.ListIdentities())
}

// waitForKind skips notifications until one of the given kind arrives.
func waitForKind(t *testing.T, sub driving.Subscription, kind domain.NotificationKind) domain.Notification {
	t.Helper()
	for {
		n := nextNotification(t, sub)
		if n.Kind == kind {
			return n
		}
	}
}

func TestStartCache_ScanNotificationsReachEarlySubscriber(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "Token.json")
	bad := filepath.Join(root, "Bad.json")
	writeArtifact(t, good, artifactJSON("Token", "0xabc"))
	writeArtifact(t, bad, `{"contractName": "Ba`)

	notifier := NewNotifier(16)
	sub := notifier.Subscribe(16)
	defer sub.Close()

	startTestCache(t, newFakeSource(), CacheDeps{Notifier: notifier}, root)

	got := map[domain.NotificationKind]string{}
	for range 2 {
		n := nextNotification(t, sub)
		got[n.Kind] = n.Path
	}
	assert.Equal(t, map[domain.NotificationKind]string{
		domain.NotifyAdded: good,
		domain.NotifyError: bad,
	}, got)
}

func TestArtifactCache_IdenticalRewriteReclaimsIdentity(t *testing.T) {
	root := t.TempDir()
	older := filepath.Join(root, "a.json")
	newer := filepath.Join(root, "b.json")

	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root)
	sub := c.Subscribe(16)
	defer sub.Close()

	writeArtifact(t, older, artifactJSON("Token", "0x111"))
	src.send(older, domain.FileCreated)
	nextNotification(t, sub)

	writeArtifact(t, newer, artifactJSON("Token", "0x222"))
	src.send(newer, domain.FileCreated)
	nextNotification(t, sub)

	// Rewriting the older file with the same bytes makes it the latest write.
	src.send(older, domain.FileModified)
	src.events <- domain.FileEvent{Kind: domain.FileError, Err: errors.New("marker")}

	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyError, n.Kind, "identical rewrite must not notify")
	assert.Equal(t, "marker", n.Reason)

	rec, err := c.Query(map[string]string{"contractName": "Token"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, older, rec.SourcePath)
}

func TestArtifactCache_ReconcileMarksDeletedRootUnavailable(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "build")
	other := t.TempDir()
	require.NoError(t, os.Mkdir(root, 0o755))

	src := newFakeSource()
	c := startTestCache(t, src, CacheDeps{}, root, other)
	sub := c.Subscribe(16)
	defer sub.Close()

	require.NoError(t, os.RemoveAll(root))
	src.resyncErr[root] = fs.ErrNotExist

	err := c.Reconcile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWatchSetup)

	n := nextNotification(t, sub)
	assert.Equal(t, domain.NotifyError, n.Kind)
	assert.Equal(t, root, n.Path)

	states := map[string]domain.RootState{}
	for _, st := range c.Roots() {
		states[st.Path] = st.State
	}
	assert.Equal(t, domain.RootUnavailable, states[root])
	assert.Equal(t, domain.RootWatching, states[other])

	// Unavailable roots are skipped on the next pass.
	src.mu.Lock()
	src.resyncs = nil
	src.mu.Unlock()
	require.NoError(t, c.Reconcile(context.Background()))
	assert.Equal(t, []string{other}, src.resyncs)
}
