package weighins

import (
	"context"
	"fmt"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
)

type WeighInCmd struct {
	Log     WeighInLogCmd     `cmd:"" help:"Record a weigh-in."`
	Latest  WeighInLatestCmd  `cmd:"" help:"Show the latest weigh-in and changes."`
	History WeighInHistoryCmd `cmd:"" help:"List recent weigh-ins."`
}

type WeighInLogCmd struct {
	Weight float64 `arg:"" help:"Weight in kg."`
	Date   string  `help:"Date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *WeighInLogCmd) Run(ctx *cli.Context) error {
	date, err := utils.ParseOptionalDate(c.Date)
	if err != nil {
		return err
	}

	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	w, err := t.LogWeighIn(bg, c.Weight, date)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Logged %.1f kg on %s\n", w.Weight, w.Date)
	return nil
}

func formatChange(label string, change *float64) string {
	if change == nil {
		return fmt.Sprintf("  %-13s -\n", label+":")
	}
	return fmt.Sprintf("  %-13s %+.1f kg\n", label+":", *change)
}

type WeighInLatestCmd struct{}

func (c *WeighInLatestCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	latest, err := t.LatestWeighIn(bg)
	if err != nil {
		return err
	}
	if latest.WeighIn == nil {
		ctx.Printf("No weigh-ins yet.\n")
		return nil
	}

	ctx.Printf("Latest: %.1f kg on %s\n\n", latest.WeighIn.Weight, latest.WeighIn.Date)
	ctx.Printf("%s", formatChange("This week", latest.WeekChange))
	ctx.Printf("%s", formatChange("Since start", latest.TotalChange))
	if latest.CanWeighIn {
		ctx.Printf("\nYou can weigh in this week.\n")
	} else {
		ctx.Printf("\nAlready weighed in this week.\n")
	}
	return nil
}

type WeighInHistoryCmd struct {
	Limit int `help:"Number of weigh-ins to show." default:"12"`
}

func (c *WeighInHistoryCmd) Run(ctx *cli.Context) error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	history, err := t.WeighInHistory(bg, c.Limit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		ctx.Printf("No weigh-ins yet.\n")
		return nil
	}
	for i, w := range history {
		delta := ""
		if i+1 < len(history) {
			delta = fmt.Sprintf("  (%+.1f)", w.Weight-history[i+1].Weight)
		}
		ctx.Printf("%s  %6.1f kg%s\n", w.Date, w.Weight, delta)
	}
	return nil
}
