package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/adapters/driven/storage/memory"
	"github.com/frods/trufflepig/internal/adapters/driven/storage/sqlite"
	"github.com/frods/trufflepig/internal/connectors/filesystem"
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/core/services"
	"github.com/frods/trufflepig/internal/logger"
	"github.com/frods/trufflepig/internal/parsers"
)

var errNoSettings = errors.New("settings service not configured")

// addCacheFlags registers the flags that override cache settings.
func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("path", "p", nil, "directory to watch (repeatable)")
	cmd.Flags().String("pattern", "", "glob matched against artifact file names")
	cmd.Flags().Duration("debounce", 0, "quiet period before a changed file is re-read")
	cmd.Flags().String("journal", "", "notification journal: memory, sqlite or off")
}

// addServerFlags registers the flags that override HTTP settings.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 0, "listen port")
	cmd.Flags().String("endpoint", "", "endpoint path")
}

// loadSettings returns the stored settings with any changed flags applied.
func loadSettings(cmd *cobra.Command) (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errNoSettings
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("path") {
		paths, _ := flags.GetStringArray("path")
		settings.Cache.Roots = paths
	}
	if flags.Changed("pattern") {
		settings.Cache.Pattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("debounce") {
		settings.Cache.Debounce, _ = flags.GetDuration("debounce")
	}
	if flags.Changed("journal") {
		v, _ := flags.GetString("journal")
		backend := domain.JournalBackend(v)
		if !backend.IsValid() {
			return nil, fmt.Errorf("%w: --journal %q is not one of memory, sqlite, off", domain.ErrInvalidInput, v)
		}
		settings.Journal.Backend = backend
	}
	if flags.Changed("host") {
		settings.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		settings.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("endpoint") {
		settings.Server.Endpoint, _ = flags.GetString("endpoint")
	}
	return settings, nil
}

// openJournal opens the configured journal. It returns nil when
// recording is off.
func openJournal(s domain.JournalSettings) (driven.EventJournal, error) {
	switch s.Backend {
	case domain.JournalOff:
		return nil, nil
	case domain.JournalSQLite:
		store, err := sqlite.NewStore(s.Dir, s.Size)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		logger.Debug("Journal: %s", store.Path())
		return store, nil
	default:
		return memory.NewJournal(s.Size), nil
	}
}

// runningCache is a started cache and the journal it records to.
type runningCache struct {
	*services.ArtifactCache
	journal driven.EventJournal
}

// Close shuts the cache down and closes its journal.
func (r *runningCache) Close() error {
	err := r.Shutdown()
	if r.journal != nil {
		err = errors.Join(err, r.journal.Close())
	}
	return err
}

// startCache wires the watcher, parsers, index and journal and starts
// the cache. With reconcile false the periodic rescan is disabled,
// which suits one-shot commands. A non-nil notifier lets callers
// subscribe before the initial scan.
func startCache(ctx context.Context, settings *domain.AppSettings, reconcile bool, notifier *services.Notifier) (*runningCache, error) {
	cfg := settings.Cache
	if !reconcile {
		cfg.ReconcileInterval = 0
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, domain.ErrNoRoots) {
			return nil, fmt.Errorf("%w: pass --path or run 'trufflepig config set paths <dir>'", err)
		}
		return nil, err
	}

	journal, err := openJournal(settings.Journal)
	if err != nil {
		return nil, err
	}

	watcher, err := filesystem.New(filesystem.Options{
		Pattern:  cfg.Pattern,
		Debounce: cfg.Debounce,
	})
	if err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	logger.Section("Starting cache")
	start := time.Now()
	cache, err := services.StartCache(ctx, cfg, services.CacheDeps{
		Source:   watcher,
		Parsers:  parsers.NewDefaultRegistry(cfg.Parser),
		Index:    memory.NewArtifactStore(),
		Journal:  journal,
		Notifier: notifier,
	})
	if err != nil {
		_ = watcher.Close()
		if journal != nil {
			_ = journal.Close()
		}
		return nil, err
	}
	logger.Debug("Cache ready in %s", time.Since(start).Round(time.Millisecond))

	return &runningCache{ArtifactCache: cache, journal: journal}, nil
}
