package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/catalog/pkg/log"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Version   int
	Name      string
	SQL       string
	AppliedAt *time.Time
}

// MigrationManager applies the embedded (or on-disk) migrations for one
// dialect.
type MigrationManager struct {
	db             *sql.DB
	dialect        Dialect
	migrationsPath string // If set, load from filesystem instead of embedded
	log            *log.Logger
}

// NewMigrationManager creates a manager using the embedded migrations of
// dialect.
func NewMigrationManager(db *sql.DB, dialect Dialect) *MigrationManager {
	return &MigrationManager{db: db, dialect: dialect, log: log.For("db")}
}

// NewMigrationManagerFromPath loads migrations from a directory instead.
// Tests use it to run custom migration sets.
func NewMigrationManagerFromPath(db *sql.DB, dialect Dialect, migrationsPath string) *MigrationManager {
	m := NewMigrationManager(db, dialect)
	m.migrationsPath = migrationsPath
	return m
}

// EnsureMigrationsTable creates the bookkeeping table if needed.
func (m *MigrationManager) EnsureMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			applied_at BIGINT NOT NULL
		)
	`)
	return err
}

// GetAppliedMigrations returns applied versions and when they were applied.
func (m *MigrationManager) GetAppliedMigrations() (map[int]time.Time, error) {
	applied := make(map[int]time.Time)

	rows, err := m.db.Query("SELECT version, applied_at FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			m.log.Warnf("failed to close rows: %v", err)
		}
	}()

	for rows.Next() {
		var version int
		var appliedAt int64
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		applied[version] = time.Unix(appliedAt, 0).UTC()
	}

	return applied, rows.Err()
}

// GetAvailableMigrations lists every known migration sorted by version.
func (m *MigrationManager) GetAvailableMigrations() ([]Migration, error) {
	if m.migrationsPath != "" {
		return loadMigrations(os.DirFS(m.migrationsPath), ".")
	}
	return loadMigrations(migrationsFS, path.Join("migrations", string(m.dialect)))
}

// loadMigrations reads NNN_name.sql files from dir. Files that do not follow
// the naming scheme are skipped.
func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		// "001_initial.sql" -> 1, "initial"
		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) != 2 {
			continue
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(parts[1], ".sql"),
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// GetPendingMigrations returns migrations that haven't been applied yet.
func (m *MigrationManager) GetPendingMigrations() ([]Migration, error) {
	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return nil, err
	}

	available, err := m.GetAvailableMigrations()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range available {
		if _, exists := applied[migration.Version]; !exists {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// ApplyMigration runs one migration and records it in a single transaction.
func (m *MigrationManager) ApplyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				m.log.Warnf("failed to rollback migration transaction: %v", err)
			}
		}
	}()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("executing migration %d: %w", migration.Version, err)
	}

	record := m.dialect.Rebind("INSERT INTO migrations (version, applied_at) VALUES (?, ?)")
	if _, err := tx.Exec(record, migration.Version, time.Now().Unix()); err != nil {
		return fmt.Errorf("recording migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", migration.Version, err)
	}

	committed = true
	return nil
}

// ApplyPendingMigrations applies every pending migration in version order
// and returns how many were applied.
func (m *MigrationManager) ApplyPendingMigrations() (int, error) {
	if err := m.EnsureMigrationsTable(); err != nil {
		return 0, fmt.Errorf("ensuring migrations table: %w", err)
	}

	pending, err := m.GetPendingMigrations()
	if err != nil {
		return 0, fmt.Errorf("getting pending migrations: %w", err)
	}

	for _, migration := range pending {
		m.log.Infof("applying migration %d: %s", migration.Version, migration.Name)
		if err := m.ApplyMigration(migration); err != nil {
			return 0, fmt.Errorf("applying migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}
	return len(pending), nil
}

// MigrationStatus is the current state of migrations.
type MigrationStatus struct {
	Applied   []Migration
	Pending   []Migration
	Available []Migration
}

// GetMigrationStatus reports applied, pending and available migrations.
func (m *MigrationManager) GetMigrationStatus() (*MigrationStatus, error) {
	if err := m.EnsureMigrationsTable(); err != nil {
		return nil, fmt.Errorf("ensuring migrations table: %w", err)
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return nil, err
	}

	available, err := m.GetAvailableMigrations()
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		Applied:   make([]Migration, 0, len(applied)),
		Available: available,
	}
	for _, migration := range available {
		if appliedAt, exists := applied[migration.Version]; exists {
			migration.AppliedAt = &appliedAt
			status.Applied = append(status.Applied, migration)
		} else {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}
