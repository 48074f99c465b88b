// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so no C compiler is needed.
//
// WHY sqlx ON TOP OF database/sql?
// sqlx keeps the database/sql pool semantics but scans rows straight into
// structs using their `db:"..."` tags, so we don't hand-write Scan() calls
// that must match the SELECT column order.
//
// The SQL itself lives in two embedded places:
//   - migrations/NNNN_name.sql : schema changes, applied once each (migrate.go)
//   - queries.sql              : named statements loaded with dotsql (queries.go)
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sqlx.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database. Handy for tests.
const MemoryDSN = ":memory:"

// Options tunes the connection pool.
type Options struct {
	// MaxOpenConns caps concurrent connections. Zero means DefaultMaxOpenConns.
	// In-memory databases always use exactly one connection.
	MaxOpenConns int
	// BusyTimeout is how long a statement waits on a locked database before
	// failing with SQLITE_BUSY. Zero means DefaultBusyTimeout.
	BusyTimeout time.Duration
}

const (
	DefaultMaxOpenConns = 10
	DefaultBusyTimeout  = 5 * time.Second
)

// DB wraps a sqlx connection pool and provides repository methods.
// It implements repository.UserRepository (see user.go).
type DB struct {
	conn    *sqlx.DB
	queries queries
}

// New opens the SQLite database at path, applies pending migrations and
// prepares the named queries.
//
// path examples:
//   - "users.db"       → file-based database (created if missing)
//   - ":memory:"       → in-memory database (lost on close)
//
// sqlx.Open does NOT actually open a connection, it creates a pool manager.
// We Ping to force an immediate connection so a bad path fails here and not
// on the first request.
func New(path string, opts Options) (*DB, error) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = DefaultMaxOpenConns
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}

	conn, err := sqlx.Open("sqlite", buildDSN(path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its OWN empty database.
	// Pin the pool to a single connection that never expires so all callers
	// see the same tables.
	if isMemory(path) {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets readers proceed while a write is in progress. The setting
	// is stored in the database file, so running it once is enough.
	// In-memory databases have no journal file and silently keep "memory".
	if !isMemory(path) {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
		}
	}

	q, err := loadQueries()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: loading queries: %w", err)
	}

	db := &DB{conn: conn, queries: q}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// buildDSN appends per-connection PRAGMAs using the driver's _pragma query
// parameters. A plain `PRAGMA ...` Exec would only configure whichever pooled
// connection happened to run it.
func buildDSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

func isMemory(path string) bool {
	return path == MemoryDSN || strings.Contains(path, "mode=memory")
}
