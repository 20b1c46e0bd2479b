package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting existing database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if ctx.Store == nil {
		return fmt.Errorf("init needs a database backend, got %q", ctx.Globals.Backend)
	}

	if c.Force {
		if _, ok := ctx.Store.(*sqlite.Store); !ok {
			return errors.New("--force is only supported for SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release the file lock.
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
