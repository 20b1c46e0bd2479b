package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// setupTestMigrations builds an in-memory migrations filesystem.
func setupTestMigrations(t *testing.T, files map[string]string) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func setupSQLiteTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver Driver
		in     string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.driver), func(t *testing.T) {
			if got := tt.driver.Rebind(tt.in); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRunnerValidation(t *testing.T) {
	db := setupSQLiteTestDB(t)
	fsys := setupTestMigrations(t, nil)

	if _, err := NewRunner(nil, fsys, DriverSQLite); err == nil {
		t.Error("expected error for nil db")
	}
	if _, err := NewRunner(db, nil, DriverSQLite); err == nil {
		t.Error("expected error for nil filesystem")
	}
	if _, err := NewRunner(db, fsys, Driver("mysql")); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestApplyMigrations(t *testing.T) {
	db := setupSQLiteTestDB(t)
	fsys := setupTestMigrations(t, map[string]string{
		"001_init.sql":      "CREATE TABLE habit_days (day TEXT PRIMARY KEY);",
		"002_weigh_ins.sql": "CREATE TABLE weigh_ins (id TEXT PRIMARY KEY);",
		"README.md":         "ignored",
	})

	runner, err := NewRunner(db, fsys, DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	var messages []string
	count, err := runner.ApplyMigrations(func(msg string) { messages = append(messages, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	if count != 2 {
		t.Errorf("applied %d migrations, want 2", count)
	}
	if len(messages) == 0 {
		t.Error("expected progress messages")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil || count != 0 {
		t.Errorf("second ApplyMigrations() = %d, %v; want 0, nil", count, err)
	}
}

func TestApplyMigrationsRollsBackFailedMigration(t *testing.T) {
	db := setupSQLiteTestDB(t)
	fsys := setupTestMigrations(t, map[string]string{
		"001_init.sql":   "CREATE TABLE injections (id TEXT PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE nope (;",
	})

	runner, err := NewRunner(db, fsys, DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if count != 1 {
		t.Errorf("applied %d migrations, want 1", count)
	}
	if version, _ := runner.GetCurrentVersion(); version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
}

func TestReadMigrationFilesRejectsBadNames(t *testing.T) {
	db := setupSQLiteTestDB(t)
	tests := map[string]map[string]string{
		"no underscore":     {"001.sql": ""},
		"non-numeric":       {"abc_init.sql": ""},
		"zero version":      {"000_init.sql": ""},
		"duplicate version": {"001_a.sql": "", "1_b.sql": ""},
	}
	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			runner, err := NewRunner(db, setupTestMigrations(t, files), DriverSQLite)
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}
			if _, err := runner.ReadMigrationFiles(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateVersionRejectsNewerDatabase(t *testing.T) {
	db := setupSQLiteTestDB(t)
	runner, err := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE a (id INTEGER);",
	}), DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion() error = %v", err)
	}
	err = runner.ValidateVersion()
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("ValidateVersion() = %v", err)
	}
}
