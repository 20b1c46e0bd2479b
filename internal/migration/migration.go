// Package migration applies the embedded, numbered SQL schema files to a
// SQLite or PostgreSQL database.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
)

// ErrSchemaTooNew means the database was migrated by a newer binary.
var ErrSchemaTooNew = errors.New("database schema is newer than supported")

// Driver selects the SQL dialect the runner speaks.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Rebind rewrites ? placeholders into the driver's native form.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migration is one NNN_name.sql file.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status compares the database with the embedded files.
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

func (s Status) tooNew() error {
	if s.Current > s.Latest {
		return fmt.Errorf("%w: database is at version %d, this build supports %d - please upgrade the application", ErrSchemaTooNew, s.Current, s.Latest)
	}
	return nil
}

type Runner struct {
	db     *sql.DB
	fs     fs.FS
	driver Driver
}

func NewRunner(db *sql.DB, migrationFS fs.FS, driver Driver) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migration runner requires a database")
	}
	if migrationFS == nil {
		return nil, errors.New("migration runner requires a migrations filesystem")
	}
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}
	return &Runner{db: db, fs: migrationFS, driver: driver}, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (r *Runner) ensureVersionTable() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	return nil
}

// writeVersion keeps schema_version at exactly one row.
func (r *Runner) writeVersion(ex execer, version int) error {
	if _, err := ex.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	if _, err := ex.Exec(r.driver.Rebind("INSERT INTO schema_version (version) VALUES (?)"), version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

// GetCurrentVersion returns 0 for a fresh database.
func (r *Runner) GetCurrentVersion() (int, error) {
	if err := r.ensureVersionTable(); err != nil {
		return 0, err
	}
	var version int
	switch err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

func (r *Runner) SetVersion(version int) error {
	if err := r.ensureVersionTable(); err != nil {
		return err
	}
	return r.writeVersion(r.db, version)
}

// parseName splits "001_init.sql" into 1 and "init".
func parseName(file string) (int, string, error) {
	prefix, rest, ok := strings.Cut(file, "_")
	if !ok {
		return 0, "", fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", file)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in filename %s: %w", file, err)
	}
	if version < 1 {
		return 0, "", fmt.Errorf("invalid version number in filename %s: version must be at least 1", file)
	}
	return version, strings.TrimSuffix(rest, ".sql"), nil
}

// ReadMigrationFiles returns the .sql files sorted by version.
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, name, err := parseName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s and %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(r.fs, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Status reads the database version and lists the files not yet applied.
func (r *Runner) Status() (Status, error) {
	current, err := r.GetCurrentVersion()
	if err != nil {
		return Status{}, err
	}
	files, err := r.ReadMigrationFiles()
	if err != nil {
		return Status{}, fmt.Errorf("failed to read migrations: %w", err)
	}
	st := Status{Current: current}
	for _, m := range files {
		st.Latest = m.Version
		if m.Version > current {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

// apply runs one migration and its version bump in a single transaction.
func (r *Runner) apply(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if err := r.writeVersion(tx, m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// ApplyMigrations applies every pending migration in order and returns how
// many succeeded. A failure stops the run with earlier migrations kept.
func (r *Runner) ApplyMigrations(logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	st, err := r.Status()
	if err != nil {
		return 0, err
	}
	if st.Latest == 0 {
		logFn("No migration files found")
		return 0, nil
	}
	if err := st.tooNew(); err != nil {
		return 0, err
	}
	if len(st.Pending) == 0 {
		logFn(fmt.Sprintf("Database schema is up to date (version %d)", st.Current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Migrating schema from version %d to %d (%d pending)", st.Current, st.Latest, len(st.Pending)))
	start := time.Now()
	for i, m := range st.Pending {
		logFn(fmt.Sprintf("  Applying migration %d: %s", m.Version, m.Name))
		if err := r.apply(m); err != nil {
			return i, err
		}
		logger.Debug("Migration applied", "driver", string(r.driver), "version", m.Version, "name", m.Name)
		logFn(fmt.Sprintf("  ✓ Migration %d applied", m.Version))
	}
	logFn(fmt.Sprintf("Applied %d migration(s) in %v", len(st.Pending), time.Since(start).Round(time.Millisecond)))
	return len(st.Pending), nil
}

// ValidateVersion rejects databases migrated by a newer build. Pending
// migrations are not an error here; stores apply them on Init.
func (r *Runner) ValidateVersion() error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	return st.tooNew()
}
