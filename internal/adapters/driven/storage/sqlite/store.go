package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/frods/trufflepig/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.EventJournal = (*Store)(nil)

// Store is a SQLite-based notification journal.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int
}

// dsnOptions turns on WAL: `trufflepig events` reads while a server writes.
const dsnOptions = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// NewStore opens the journal database in dataDir, creating it and
// applying pending migrations. maxEntries caps retained notifications;
// 0 keeps everything. An empty dataDir means ~/.trufflepig/data.
func NewStore(dataDir string, maxEntries int) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".trufflepig", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	path := domain.JournalSettings{Dir: dataDir}.JournalPath()
	db, err := sql.Open("sqlite", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	s := &Store{db: db, path: path, maxEntries: maxEntries}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating journal %s: %w", path, err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// migration is one numbered up script.
type migration struct {
	version int
	name    string
}

// pending lists the up scripts in fsys newer than applied, oldest first.
func pending(fsys fs.FS, applied int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= applied {
			continue
		}
		out = append(out, migration{version: version, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrate applies each pending script in its own transaction together
// with its schema_migrations row.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var applied int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&applied); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	todo, err := pending(fsys, applied)
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	for _, m := range todo {
		script, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", m.name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(script)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing %s: %w", m.name, err)
		}
	}
	return nil
}

// Append records a notification and prunes entries beyond maxEntries.
func (s *Store) Append(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, path, identity, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, n.ID, string(n.Kind), n.Path, n.Identity, n.Reason, n.Time.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM notifications
			WHERE seq <= (SELECT MAX(seq) FROM notifications) - ?
		`, s.maxEntries)
		if err != nil {
			return fmt.Errorf("pruning notifications: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
// A non-positive limit returns all retained notifications.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `SELECT id, kind, path, identity, reason, created_at FROM notifications ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var (
			n        domain.Notification
			kind     string
			unixNano int64
		)
		if err := rows.Scan(&n.ID, &kind, &n.Path, &n.Identity, &n.Reason, &unixNano); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Kind = domain.NotificationKind(kind)
		n.Time = time.Unix(0, unixNano)
		result = append(result, n)
	}
	return result, rows.Err()
}
