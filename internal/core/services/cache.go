package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/logger"
)

// Ensure ArtifactCache implements the interface.
var _ driving.CacheService = (*ArtifactCache)(nil)

// CacheDeps are the collaborators of an ArtifactCache.
// Source, Parsers and Index are required. Journal is optional.
// Notifier is optional; pass one to subscribe before the initial scan.
type CacheDeps struct {
	Source   driven.WatchSource
	Parsers  driven.ParserRegistry
	Index    driven.ArtifactIndex
	Journal  driven.EventJournal
	Notifier *Notifier
}

// ArtifactCache keeps the index in sync with the artifact files under
// a set of root directories and publishes lifecycle notifications.
type ArtifactCache struct {
	cfg      domain.CacheConfig
	source   driven.WatchSource
	parsers  driven.ParserRegistry
	index    driven.ArtifactIndex
	query    *QueryEngine
	notifier *Notifier
	recorder *JournalRecorder
	readFile func(string) ([]byte, error)

	// applyMu serialises read-parse-apply so the last applied result
	// for a path is always from the last read.
	applyMu sync.Mutex

	mu    sync.RWMutex
	roots []domain.RootStatus

	closing      atomic.Bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error
}

// StartCache sets up and scans every root, then keeps watching them.
// It returns once no root is still scanning. Roots that cannot be
// watched become unavailable; if none can be watched the result is a
// *domain.StartupError. The cache owns deps.Source and closes it on
// Shutdown.
func StartCache(ctx context.Context, cfg domain.CacheConfig, deps CacheDeps) (*ArtifactCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if deps.Source == nil || deps.Parsers == nil || deps.Index == nil {
		return nil, fmt.Errorf("%w: watch source, parsers and index are required", domain.ErrInvalidInput)
	}

	roots, err := normalizeRoots(cfg.Roots)
	if err != nil {
		return nil, err
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewNotifier(cfg.NotifyBuffer)
	}

	c := &ArtifactCache{
		cfg:      cfg,
		source:   deps.Source,
		parsers:  deps.Parsers,
		index:    deps.Index,
		query:    NewQueryEngine(deps.Index),
		notifier: notifier,
		readFile: os.ReadFile,
		roots:    make([]domain.RootStatus, len(roots)),
	}
	for i, root := range roots {
		c.roots[i] = domain.RootStatus{Path: root, State: domain.RootUninitialized}
	}
	if deps.Journal != nil {
		c.recorder = NewJournalRecorder(deps.Journal, c.notifier, 0)
	}

	// The event loop runs during the scan so the watch source never stalls.
	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.run(loopCtx)

	g, gctx := errgroup.WithContext(ctx)
	for i := range c.roots {
		g.Go(func() error {
			c.initRoot(gctx, i)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		_ = c.Shutdown()
		return nil, fmt.Errorf("start cache: %w", err)
	}

	var failures []*domain.WatchSetupError
	for _, st := range c.Roots() {
		if st.State == domain.RootUnavailable {
			failures = append(failures, &domain.WatchSetupError{Root: st.Path, Err: errors.New(st.Error)})
		}
	}
	if len(failures) == len(roots) {
		_ = c.Shutdown()
		return nil, &domain.StartupError{Failures: failures}
	}

	logger.Debug("Cache started: %d roots, %d records", len(roots), c.index.Len())
	return c, nil
}

func normalizeRoots(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, root := range in {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: root %q: %v", domain.ErrInvalidInput, root, err)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out, nil
}

// initRoot walks one root through setup and the initial scan.
func (c *ArtifactCache) initRoot(ctx context.Context, i int) {
	root := c.rootPath(i)

	// Watch before scanning so nothing written during the scan is missed.
	if err := c.source.Add(root); err != nil {
		c.rootUnavailable(i, err)
		return
	}
	c.setRootState(i, domain.RootScanning, 0)

	files, err := c.source.Scan(ctx, root)
	if err != nil {
		c.rootUnavailable(i, &domain.WatchSetupError{Root: root, Err: err})
		return
	}

	indexed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		if c.apply(path) {
			indexed++
		}
	}
	c.setRootState(i, domain.RootWatching, indexed)
	logger.Debug("Watching %s (%d artifacts)", root, indexed)
}

func (c *ArtifactCache) rootPath(i int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roots[i].Path
}

func (c *ArtifactCache) setRootState(i int, state domain.RootState, files int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots[i].State = state
	c.roots[i].Files = files
}

func (c *ArtifactCache) rootUnavailable(i int, err error) {
	c.mu.Lock()
	c.roots[i].State = domain.RootUnavailable
	c.roots[i].Error = err.Error()
	root := c.roots[i].Path
	c.mu.Unlock()

	logger.Warn("Root %s unavailable: %v", root, err)
	c.publish(domain.Notification{Kind: domain.NotifyError, Path: root, Reason: err.Error()})
}

func (c *ArtifactCache) run(ctx context.Context) {
	defer c.wg.Done()

	var tick <-chan time.Time
	if c.cfg.ReconcileInterval > 0 {
		ticker := time.NewTicker(c.cfg.ReconcileInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	events := c.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handle(ev)
		case <-tick:
			if err := c.Reconcile(ctx); err != nil && !errors.Is(err, domain.ErrCacheClosed) {
				logger.Warn("Reconcile: %v", err)
			}
		}
	}
}

func (c *ArtifactCache) handle(ev domain.FileEvent) {
	logger.Debug("File %s: %s", ev.Kind, ev.Path)
	switch ev.Kind {
	case domain.FileCreated, domain.FileModified:
		c.apply(ev.Path)
	case domain.FileRemoved:
		c.applyMu.Lock()
		c.remove(ev.Path)
		c.applyMu.Unlock()
	case domain.FileError:
		reason := "watch error"
		if ev.Err != nil {
			reason = ev.Err.Error()
		}
		c.publish(domain.Notification{Kind: domain.NotifyError, Path: ev.Path, Reason: reason})
	}
}

// apply reads, parses and indexes one file. It reports whether the
// path holds a record afterwards.
func (c *ArtifactCache) apply(path string) bool {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.closing.Load() {
		return false
	}

	data, err := c.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.remove(path)
			return false
		}
		c.fail(path, fmt.Errorf("read: %w", err))
		return false
	}

	rec, err := c.parsers.Parse(path, data)
	if c.closing.Load() {
		return false
	}
	if err != nil {
		c.fail(path, err)
		return false
	}

	sum := blake3.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	prev, existed := c.index.ByPath(path)
	if existed && prev.Digest == digest {
		// Identical bytes still refresh write order, silently.
		c.index.Upsert(path, prev)
		return true
	}

	rec = rec.WithSource(path, digest)
	c.index.Upsert(path, rec)

	kind := domain.NotifyAdded
	if existed {
		kind = domain.NotifyChanged
	}
	c.publish(domain.Notification{Kind: kind, Path: path, Identity: rec.Identity})
	return true
}

// fail drops the path's prior record, if any, and reports the error.
// Callers hold applyMu.
func (c *ArtifactCache) fail(path string, err error) {
	identity := ""
	if prev, ok := c.index.Remove(path); ok {
		identity = prev.Identity
	}
	c.publish(domain.Notification{Kind: domain.NotifyError, Path: path, Identity: identity, Reason: err.Error()})
}

// remove drops the path's record. Callers hold applyMu.
func (c *ArtifactCache) remove(path string) {
	prev, ok := c.index.Remove(path)
	if !ok {
		return
	}
	c.publish(domain.Notification{Kind: domain.NotifyRemoved, Path: path, Identity: prev.Identity})
}

func (c *ArtifactCache) publish(n domain.Notification) {
	if c.closing.Load() {
		return
	}
	c.notifier.Publish(n)
}

// Query returns the first record satisfying every criterion, or nil.
func (c *ArtifactCache) Query(criteria map[string]string) (*domain.ArtifactRecord, error) {
	return c.query.Find(criteria)
}

// Artifact returns the visible record for identity.
func (c *ArtifactCache) Artifact(identity string) (*domain.ArtifactRecord, bool) {
	return c.index.Get(identity)
}

// ListIdentities returns every visible identity, sorted.
func (c *ArtifactCache) ListIdentities() []string {
	return c.query.ListIdentities()
}

// Subscribe opens a notification subscription.
func (c *ArtifactCache) Subscribe(buffer int) driving.Subscription {
	return c.notifier.Subscribe(buffer)
}

// Roots returns a snapshot of every root's state.
func (c *ArtifactCache) Roots() []domain.RootStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.RootStatus, len(c.roots))
	copy(out, c.roots)
	return out
}

// Stats summarises the index and notifier.
func (c *ArtifactCache) Stats() domain.CacheStats {
	return domain.CacheStats{
		Records:     c.index.Len(),
		Identities:  len(c.index.Identities()),
		Dropped:     c.notifier.Dropped(),
		Subscribers: c.notifier.Subscribers(),
	}
}

// Recent returns recorded notifications, newest first.
// Without a journal the history is empty.
func (c *ArtifactCache) Recent(ctx context.Context, limit int) ([]domain.Notification, error) {
	if c.recorder == nil {
		return []domain.Notification{}, nil
	}
	return c.recorder.Recent(ctx, limit)
}

// Reconcile rescans every watching root. Differences surface through
// the regular event stream. A root that no longer exists becomes
// unavailable and publishes an error notification.
func (c *ArtifactCache) Reconcile(ctx context.Context) error {
	if c.closing.Load() {
		return domain.ErrCacheClosed
	}
	var errs []error
	for i, st := range c.Roots() {
		if st.State != domain.RootWatching {
			continue
		}
		err := c.source.Resync(ctx, st.Path)
		if err == nil {
			continue
		}
		if ctx.Err() == nil && rootGone(st.Path) {
			err = &domain.WatchSetupError{Root: st.Path, Err: err}
			c.rootUnavailable(i, err)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// rootGone reports whether root no longer names a directory.
func rootGone(root string) bool {
	info, err := os.Stat(root)
	return err != nil || !info.IsDir()
}

// Shutdown stops watching, discards in-flight results and closes every
// subscription. Idempotent.
func (c *ArtifactCache) Shutdown() error {
	c.shutdownOnce.Do(func() {
		c.closing.Store(true)
		if c.cancel != nil {
			c.cancel()
		}
		if err := c.source.Close(); err != nil {
			c.shutdownErr = fmt.Errorf("close watch source: %w", err)
		}
		c.wg.Wait()
		c.notifier.Close()
		if c.recorder != nil {
			c.recorder.Stop()
		}
		logger.Debug("Cache shut down")
	})
	return c.shutdownErr
}
