package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/db"
	"github.com/rubiojr/catalog/pkg/log"
)

// Store is the SQL backed product store. It serves SQLite (the default,
// through the ncruces WASM driver) and PostgreSQL.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
	log     *log.Logger
}

// Open connects to a store. driver is "sqlite" or "postgres"; for SQLite the
// dsn is a file path or a file: URI.
func Open(driver, dsn string) (*Store, error) {
	dialect, err := db.ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	if dialect == db.SQLite {
		dsn = sqliteDSN(dsn)
	}

	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: conn, dialect: dialect, log: log.For("storage")}
	if dialect == db.SQLite {
		if err := s.applyPragmas(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	} else if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return s, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*Store, error) {
	return Open(string(db.SQLite), path)
}

// sqliteDSN turns a plain path into a file: URI carrying the per-connection
// pragmas, so every pooled connection gets them.
func sqliteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?_pragma=busy_timeout(30000)"
}

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA optimize",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() db.Dialect {
	return s.dialect
}

// Migrate applies pending schema migrations and returns how many ran.
func (s *Store) Migrate() (int, error) {
	return db.NewMigrationManager(s.db, s.dialect).ApplyPendingMigrations()
}

// MigrationStatus reports applied and pending migrations.
func (s *Store) MigrationStatus() (*db.MigrationStatus, error) {
	return db.NewMigrationManager(s.db, s.dialect).GetMigrationStatus()
}

// Optimize refreshes planner statistics. On SQLite it also truncates the WAL.
func (s *Store) Optimize(ctx context.Context) error {
	stmts := []string{"ANALYZE"}
	if s.dialect == db.SQLite {
		stmts = []string{"PRAGMA optimize", "ANALYZE", "PRAGMA wal_checkpoint(TRUNCATE)"}
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running %q: %w", stmt, err)
		}
	}
	return nil
}

// Stats summarizes store contents.
type Stats struct {
	Products   map[catalog.Status]int
	Attributes int
	Categories int
	Users      int
}

// Total returns the number of products across all statuses.
func (st *Stats) Total() int {
	n := 0
	for _, c := range st.Products {
		n += c
	}
	return n
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Products: make(map[catalog.Status]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM products GROUP BY status")
	if err != nil {
		return nil, s.fail(ctx, "stats", err)
	}
	defer s.closeRows(rows)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, s.fail(ctx, "stats", err)
		}
		st.Products[catalog.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, "stats", err)
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM product_attributes", &st.Attributes},
		{"SELECT COUNT(*) FROM categories", &st.Categories},
		{"SELECT COUNT(*) FROM users", &st.Users},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, s.fail(ctx, "stats", err)
		}
	}
	return st, nil
}

// fail classifies a database error. Cancellation and deadlines keep their
// context error; everything else becomes a retryable store failure.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return err
	}
	s.log.Debugf("%s failed: %v", op, err)
	return catalog.Unavailable(op, err)
}

func (s *Store) closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		s.log.Warnf("failed to close rows: %v", err)
	}
}

func (s *Store) rollback(tx *sql.Tx, committed *bool) {
	if *committed {
		return
	}
	if err := tx.Rollback(); err != nil {
		s.log.Warnf("failed to rollback transaction: %v", err)
	}
}
