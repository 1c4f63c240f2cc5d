// Package sqlite provides a SQLite-backed notification journal.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements driven.EventJournal so
// cache notifications can be inspected after the fact (trufflepig events).
//
// The journal is diagnostic only. The artifact index is always rebuilt from the
// files on disk and is never restored from this database.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.trufflepig/data/journal.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
