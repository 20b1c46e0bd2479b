package system

import (
	"fmt"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage"
)

type MigrateCmd struct {
	Status bool `help:"Report the schema version without applying anything."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migratable)
	if !ok {
		return fmt.Errorf("migrate needs a database backend, got %q", ctx.Globals.Backend)
	}
	defer ctx.Store.Close()

	if c.Status {
		return c.report(ctx, m)
	}

	applied, err := m.Migrate(func(msg string) { ctx.Printf("%s\n", msg) })
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	switch applied {
	case 0:
		ctx.Printf("No migrations to apply. Database is up to date.\n")
	default:
		ctx.Printf("\nApplied %d migration(s).\n", applied)
	}
	return nil
}

// report never applies migrations. Load still refuses a database newer than
// this build.
func (c *MigrateCmd) report(ctx *cli.Context, m storage.Migratable) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	ctx.Printf("Schema version: %d\n", current)
	ctx.Printf("Latest known:   %d\n", latest)
	if pending := latest - current; pending > 0 {
		ctx.Printf("%d migration(s) pending. Run 'migrate' to apply.\n", pending)
	} else {
		ctx.Printf("Database is up to date.\n")
	}
	return nil
}
