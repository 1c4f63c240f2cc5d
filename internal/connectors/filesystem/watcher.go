// Package filesystem watches local directory trees for artifact files.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.WatchSource = (*Watcher)(nil)

// ErrWatcherClosed is returned by operations on a closed watcher.
var ErrWatcherClosed = errors.New("watcher closed")

// Options configures a Watcher.
type Options struct {
	// Pattern is a glob matched against file base names (e.g. "*.json").
	Pattern string

	// Debounce is the quiescence window per path.
	Debounce time.Duration

	// Buffer is the capacity of the event channel.
	Buffer int
}

// fileStamp identifies a file version cheaply for resync.
type fileStamp struct {
	size    int64
	modTime time.Time
}

func stampOf(info fs.FileInfo) fileStamp {
	return fileStamp{size: info.Size(), modTime: info.ModTime()}
}

// listedFile is a matching file seen while adding watches.
type listedFile struct {
	path  string
	stamp fileStamp
}

// Watcher is an fsnotify-backed driven.WatchSource.
//
// Raw events are coalesced per path: every event pushes the path's
// deadline out by the debounce window, and only when the deadline
// passes is the file's final state inspected and one event emitted.
// All events are emitted from a single goroutine, so events for one
// path are never reordered.
type Watcher struct {
	matcher  glob.Glob
	debounce time.Duration

	fsw    *fsnotify.Watcher
	events chan domain.FileEvent
	fires  chan string
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	files   map[string]fileStamp
	dirs    map[string]struct{}
	pending map[string]time.Time

	// listed holds the files Add found per root until Scan claims them.
	listed map[string][]listedFile
}

// New creates a watcher. Roots are added with Add.
func New(opts Options) (*Watcher, error) {
	if opts.Pattern == "" {
		opts.Pattern = domain.DefaultPattern
	}
	if opts.Buffer <= 0 {
		opts.Buffer = domain.DefaultNotifyBuffer
	}

	matcher, err := glob.Compile(opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", domain.ErrInvalidInput, opts.Pattern, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		matcher:  matcher,
		debounce: opts.Debounce,
		fsw:      fsw,
		events:   make(chan domain.FileEvent, opts.Buffer),
		fires:    make(chan string),
		done:     make(chan struct{}),
		files:    make(map[string]fileStamp),
		dirs:     make(map[string]struct{}),
		pending:  make(map[string]time.Time),
		listed:   make(map[string][]listedFile),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Events returns the debounced event stream.
func (w *Watcher) Events() <-chan domain.FileEvent {
	return w.events
}

// Matches reports whether path's base name matches the file pattern.
func (w *Watcher) Matches(path string) bool {
	return w.matcher.Match(filepath.Base(path))
}

// Add watches root and every directory below it.
func (w *Watcher) Add(root string) error {
	if w.isClosed() {
		return &domain.WatchSetupError{Root: root, Err: ErrWatcherClosed}
	}

	info, err := os.Stat(root)
	if err != nil {
		return &domain.WatchSetupError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return &domain.WatchSetupError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	files, err := w.addTree(root)
	if err != nil {
		return &domain.WatchSetupError{Root: root, Err: err}
	}
	w.mu.Lock()
	w.listed[root] = files
	w.mu.Unlock()
	return nil
}

// Scan enumerates matching files under root and marks them as known.
// The first Scan after Add reuses the files Add found; files created
// since then arrive as events.
func (w *Watcher) Scan(ctx context.Context, root string) ([]string, error) {
	w.mu.Lock()
	listed, ok := w.listed[root]
	delete(w.listed, root)
	w.mu.Unlock()
	if ok {
		return w.claim(ctx, root, listed)
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() || !w.Matches(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		w.mu.Lock()
		w.files[path] = stampOf(info)
		w.mu.Unlock()
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

// claim marks listed files as known and returns their paths, sorted.
func (w *Watcher) claim(ctx context.Context, root string, listed []listedFile) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	found := make([]string, 0, len(listed))
	w.mu.Lock()
	for _, f := range listed {
		w.files[f.path] = f.stamp
		found = append(found, f.path)
	}
	w.mu.Unlock()
	sort.Strings(found)
	return found, nil
}

// Resync walks root and schedules an event for every file whose state
// differs from what the watcher last reported, and for every known file
// that is gone. Directories missed by the backend are watched.
func (w *Watcher) Resync(ctx context.Context, root string) error {
	if w.isClosed() {
		return ErrWatcherClosed
	}

	seen := make(map[string]struct{})
	seenDirs := make(map[string]struct{})
	var changed []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			seenDirs[path] = struct{}{}
			w.watchDir(path)
			return nil
		}
		if !d.Type().IsRegular() || !w.Matches(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		seen[path] = struct{}{}
		w.mu.Lock()
		stamp, known := w.files[path]
		w.mu.Unlock()
		if !known || stamp != stampOf(info) {
			changed = append(changed, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("resync %s: %w", root, err)
	}

	for _, path := range w.knownUnder(root) {
		if _, ok := seen[path]; !ok {
			changed = append(changed, path)
		}
	}
	w.pruneDirs(root, seenDirs)

	for _, path := range changed {
		w.schedule(path)
	}
	return nil
}

// Close stops watching and closes the event channel. Idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	return err
}

func (w *Watcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// loop is the only goroutine that emits events.
func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.emit(domain.FileEvent{Kind: domain.FileError, Err: err})

		case path := <-w.fires:
			w.fire(path)
		}
	}
}

// handle turns one raw fsnotify event into scheduled paths.
func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.isWatched(path) {
				return
			}
			files, err := w.addTree(path)
			if err != nil {
				w.emit(domain.FileEvent{Path: path, Kind: domain.FileError, Err: err})
			}
			for _, f := range files {
				w.schedule(f.path)
			}
			return
		}
		if w.Matches(path) {
			w.schedule(path)
		}

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		for _, f := range w.forgetDir(path) {
			w.schedule(f)
		}
		if w.Matches(path) {
			w.schedule(path)
		}

	case ev.Has(fsnotify.Write):
		if w.Matches(path) {
			w.schedule(path)
		}
	}
}

// schedule pushes path's deadline out by the debounce window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	due := time.Now().Add(w.debounce)
	if _, ok := w.pending[path]; ok {
		w.pending[path] = due
		return
	}
	w.pending[path] = due
	w.arm(path, w.debounce)
}

// arm delivers path to the loop after d (caller must hold lock).
func (w *Watcher) arm(path string, d time.Duration) {
	time.AfterFunc(d, func() {
		select {
		case w.fires <- path:
		case <-w.done:
		}
	})
}

// fire emits the settled state of path once its deadline has passed.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	due, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	if wait := time.Until(due); wait > 0 {
		w.arm(path, wait)
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	ev, emit := w.resolve(path)
	w.mu.Unlock()

	if emit {
		w.emit(ev)
	}
}

// resolve compares the file on disk with the known state (caller must hold lock).
func (w *Watcher) resolve(path string) (domain.FileEvent, bool) {
	info, err := os.Stat(path)
	_, known := w.files[path]

	switch {
	case err == nil && info.Mode().IsRegular():
		w.files[path] = stampOf(info)
		if known {
			return domain.FileEvent{Path: path, Kind: domain.FileModified}, true
		}
		return domain.FileEvent{Path: path, Kind: domain.FileCreated}, true
	case known:
		delete(w.files, path)
		return domain.FileEvent{Path: path, Kind: domain.FileRemoved}, true
	default:
		return domain.FileEvent{}, false
	}
}

func (w *Watcher) emit(ev domain.FileEvent) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// addTree watches dir and its subdirectories and returns the matching
// files found below it. Unreadable subdirectories are skipped.
func (w *Watcher) addTree(dir string) ([]listedFile, error) {
	var files []listedFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Warn("Not watching %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				if path == dir {
					return err
				}
				logger.Warn("Not watching %s: %v", path, err)
				return filepath.SkipDir
			}
			w.mu.Lock()
			w.dirs[path] = struct{}{}
			w.mu.Unlock()
			return nil
		}
		if !d.Type().IsRegular() || !w.Matches(path) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			files = append(files, listedFile{path: path, stamp: stampOf(info)})
		}
		return nil
	})
	return files, err
}

func (w *Watcher) isWatched(dir string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.dirs[dir]
	return ok
}

// watchDir adds a watch for a directory not yet watched.
func (w *Watcher) watchDir(path string) {
	if w.isWatched(path) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		logger.Warn("Not watching %s: %v", path, err)
		return
	}
	w.mu.Lock()
	w.dirs[path] = struct{}{}
	w.mu.Unlock()
}

// pruneDirs forgets watched directories below root that no longer exist.
func (w *Watcher) pruneDirs(root string, present map[string]struct{}) {
	prefix := root + string(filepath.Separator)
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.dirs {
		if !strings.HasPrefix(dir, prefix) {
			continue
		}
		if _, ok := present[dir]; !ok {
			delete(w.dirs, dir)
		}
	}
}

// forgetDir drops path and its subdirectories from the watched set and
// returns the known files that were below it. Returns nil if path was
// not a watched directory.
func (w *Watcher) forgetDir(path string) []string {
	w.mu.Lock()
	if _, ok := w.dirs[path]; !ok {
		w.mu.Unlock()
		return nil
	}
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.dirs, dir)
		}
	}
	w.mu.Unlock()

	// The backend drops watches of deleted directories itself; renamed
	// directories keep theirs and must be removed here.
	_ = w.fsw.Remove(path)
	return w.knownUnder(path)
}

// knownUnder returns the known files below dir, sorted.
func (w *Watcher) knownUnder(dir string) []string {
	prefix := dir + string(filepath.Separator)
	w.mu.Lock()
	defer w.mu.Unlock()
	var files []string
	for path := range w.files {
		if strings.HasPrefix(path, prefix) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}
