package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/keyring"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
	"github.com/prompt2production/needled-mobile-sub000/internal/validation"
)

type DoctorCmd struct{}

// errWarning marks a check that should not fail the run.
var errWarning = errors.New("warning")

type check struct {
	name string
	// needsDB checks are skipped when the database is not reachable.
	needsDB bool
	run     func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Running diagnostics...\n\n")

	bg := context.Background()
	hasError := false
	reachable := false

	checks := []check{
		{"Backend reachable", false, func() error { return checkReachable(bg, ctx) }},
		{"Schema version", true, func() error { return checkSchemaVersion(ctx) }},
		{"Migrations complete", true, func() error { return checkMigrationsComplete(ctx) }},
		{"Settings valid", true, func() error { return checkSettings(bg, ctx) }},
		{"Clock/timezone", false, func() error { return checkClockTimezone(ctx) }},
		{"Injection history", true, func() error { return checkInjections(bg, ctx) }},
		{"API token", false, func() error { return checkToken(ctx) }},
	}

	for i, c := range checks {
		if c.needsDB && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (backend not reachable)\n", c.name)
			continue
		}
		err := c.run()
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
			if i == 0 {
				reachable = true
			}
		case errors.Is(err, errWarning):
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Printf("\n")
	if hasError {
		ctx.Printf("Diagnostics completed with errors.\n")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Printf("All diagnostics passed!\n")
	return nil
}

func checkReachable(bg context.Context, ctx *cli.Context) error {
	if ctx.Store != nil {
		if err := ctx.Load(); err != nil {
			return fmt.Errorf("failed to load database: %w", err)
		}
		return nil
	}
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	_, err = t.TodayHabits(bg)
	return err
}

func schemaVersion(ctx *cli.Context) (current, latest int, ok bool, err error) {
	m, isMigratable := ctx.Store.(storage.Migratable)
	if !isMigratable {
		return 0, 0, false, nil
	}
	current, latest, err = m.SchemaVersion()
	return current, latest, true, err
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersion(ctx)
	if !ok || err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersion(ctx)
	if !ok || err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkSettings(bg context.Context, ctx *cli.Context) error {
	settings, err := ctx.Settings(bg)
	if err != nil {
		return err
	}
	v := validation.New(utils.TodayIn(time.UTC, time.Now()), settings.TrackGoldenDose)
	result := v.ValidateSettings(settings)
	return result.Err()
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if !utils.ValidateTimezone(ctx.Globals.Timezone) {
		return fmt.Errorf("unknown timezone %q", ctx.Globals.Timezone)
	}
	return nil
}

// checkInjections verifies stored dose numbers fit the configured pen.
func checkInjections(bg context.Context, ctx *cli.Context) error {
	if ctx.Service == nil {
		return nil
	}
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	history, err := ctx.Service.Injections(bg, ctx.Globals.User, 0)
	if err != nil {
		return err
	}
	max := t.Plan().DosesPerPen
	if t.Settings().TrackGoldenDose {
		max++
	}
	for _, inj := range history {
		if inj.DoseNumber < 1 || inj.DoseNumber > max {
			return fmt.Errorf("%w: injection %s on %s has dose number %d outside 1..%d (pen settings changed?)",
				errWarning, inj.ID, inj.Date, inj.DoseNumber, max)
		}
	}
	return nil
}

func checkToken(ctx *cli.Context) error {
	if !cli.IsAPIURL(ctx.Globals.Backend) || ctx.Globals.Token != "" {
		return nil
	}
	if _, err := keyring.GetToken(ctx.Globals.Backend); err != nil {
		return fmt.Errorf("%w: no usable token (%v); run '%s keyring set <token>'", errWarning, err, constants.AppName)
	}
	return nil
}
