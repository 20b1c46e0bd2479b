package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/migration"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage"
	"github.com/prompt2production/needled-mobile-sub000/migrations"
)

type Store struct {
	storage.SQLStore
	path string
}

func NewStore(path string) *Store {
	return &Store{
		SQLStore: storage.SQLStore{Driver: migration.DriverSQLite},
		path:     path,
	}
}

func (s *Store) open() error {
	// _pragma parameters are applied by modernc.org/sqlite on every new connection.
	dsn := "file:" + s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.DB = db
	return nil
}

func (s *Store) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	// Run migrations
	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.DB != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	if err := s.open(); err != nil {
		return err
	}

	// Validate schema version using embedded migrations
	return s.validateSchemaVersion()
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	err := s.DB.Close()
	s.DB = nil
	return err
}

func (s *Store) runner() (*migration.Runner, error) {
	// Get the embedded SQLite migrations sub-filesystem
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.DB, subFS, migration.DriverSQLite)
}

func (s *Store) runMigrations() error {
	_, err := s.Migrate(func(msg string) {
		logger.Info(msg, "backend", "sqlite")
	})
	return err
}

// Migrate applies pending migrations. Unlike Load it opens databases whose
// schema is behind.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if s.DB == nil {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return 0, fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

func (s *Store) SchemaVersion() (current, latest int, err error) {
	if s.DB == nil {
		return 0, 0, fmt.Errorf("database is not open")
	}
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	st, err := runner.Status()
	if err != nil {
		return 0, 0, err
	}
	return st.Current, st.Latest, nil
}

func (s *Store) validateSchemaVersion() error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

var (
	_ storage.Provider   = (*Store)(nil)
	_ storage.Migratable = (*Store)(nil)
)
