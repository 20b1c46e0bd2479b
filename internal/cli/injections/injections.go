package injections

import (
	"context"
	"fmt"
	"strings"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/tracker"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
)

type InjectionCmd struct {
	Log     InjectionLogCmd     `cmd:"" help:"Log an injection."`
	Status  InjectionStatusCmd  `cmd:"" help:"Show when the next injection is due."`
	History InjectionHistoryCmd `cmd:"" help:"List recent injections."`
}

type InjectionLogCmd struct {
	Site   string   `help:"Injection site (e.g. abdomen-left). Defaults to the suggested site."`
	Date   string   `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Dosage *float64 `help:"Dose in mg. Defaults to the prescribed dose."`
	Notes  string   `help:"Optional note."`
	Golden bool     `help:"Log the extra golden dose left in a full pen."`
}

func (c *InjectionLogCmd) Run(ctx *cli.Context) error {
	in := tracker.InjectionInput{DosageMg: c.Dosage, Golden: c.Golden}
	if c.Site != "" {
		site, err := models.ParseSite(c.Site)
		if err != nil {
			return err
		}
		in.Site = &site
	}
	date, err := utils.ParseOptionalDate(c.Date)
	if err != nil {
		return err
	}
	in.Date = date
	if notes := strings.TrimSpace(c.Notes); notes != "" {
		in.Notes = &notes
	}

	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	inj, err := t.LogInjection(bg, in)
	if err != nil {
		return err
	}

	kind := "Dose"
	if inj.IsGoldenDose {
		kind = "Golden dose"
	}
	ctx.Printf("✓ %s %d logged on %s at %s\n", kind, inj.DoseNumber, inj.Date, inj.Site.Label())
	if status, err := t.InjectionStatus(bg); err == nil {
		ctx.Printf("  Next: dose %d at %s, %d left in this pen\n", status.NextDose, status.SuggestedSite.Label(), status.DosesRemaining)
	}
	return nil
}

type InjectionStatusCmd struct{}

// describe renders the due-state headline.
func describe(s models.InjectionStatus) string {
	switch s.Status {
	case models.StatusDone:
		if s.DaysUntil == 1 {
			return "Done for this week. Next injection due tomorrow."
		}
		return fmt.Sprintf("Done for this week. Next injection due in %d days.", s.DaysUntil)
	case models.StatusOverdue:
		if s.DaysOverdue == 1 {
			return "Overdue by 1 day."
		}
		return fmt.Sprintf("Overdue by %d days.", s.DaysOverdue)
	default:
		return "Injection due today."
	}
}

func (c *InjectionStatusCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	s, err := t.InjectionStatus(bg)
	if err != nil {
		return err
	}

	ctx.Printf("%s\n\n", describe(s))
	if s.LastInjection != nil {
		ctx.Printf("  Last injection:  %s (dose %d, %s)\n", s.LastInjection.Date, s.LastInjection.DoseNumber, s.LastInjection.Site.Label())
	} else {
		ctx.Printf("  Last injection:  none\n")
	}
	ctx.Printf("  Suggested site:  %s\n", s.SuggestedSite.Label())
	ctx.Printf("  Next dose:       %d of %d\n", s.NextDose, t.Plan().DosesPerPen)
	ctx.Printf("  Doses remaining: %d\n", s.DosesRemaining)
	if s.GoldenDoseAvailable {
		ctx.Printf("  ✨ Golden dose available: log it with --golden\n")
	}
	if advisory := t.Plan().Advisory(); advisory != "" {
		ctx.Printf("  ⚠ %s\n", advisory)
	}
	return nil
}

type InjectionHistoryCmd struct {
	Limit int `help:"Number of injections to show." default:"10"`
}

func (c *InjectionHistoryCmd) Run(ctx *cli.Context) error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	history, err := t.InjectionHistory(bg, c.Limit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		ctx.Printf("No injections logged.\n")
		return nil
	}

	ctx.Printf("%-10s  %-4s  %-16s  %-8s  %s\n", "Date", "Dose", "Site", "mg", "Notes")
	for _, inj := range history {
		dose := fmt.Sprintf("%d", inj.DoseNumber)
		if inj.IsGoldenDose {
			dose += "★"
		}
		mg := "-"
		if inj.DosageMg != nil {
			mg = fmt.Sprintf("%g", *inj.DosageMg)
		}
		notes := ""
		if inj.Notes != nil {
			notes = *inj.Notes
		}
		ctx.Printf("%-10s  %-4s  %-16s  %-8s  %s\n", inj.Date, dose, inj.Site.Label(), mg, notes)
	}
	return nil
}
