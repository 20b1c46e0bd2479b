package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/streak"
	"github.com/prompt2production/needled-mobile-sub000/internal/tui/components/streakbar"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
)

type HabitCmd struct {
	Toggle HabitToggleCmd `cmd:"" help:"Mark a habit done or not done for a day."`
	Today  HabitTodayCmd  `cmd:"" help:"Show today's habit status."`
	Log    HabitLogCmd    `cmd:"" help:"Show habit log (ASCII history)."`
	Streak HabitStreakCmd `cmd:"" help:"Show the current and best streak."`
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit name (water, nutrition, exercise)."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Value *bool  `help:"Explicit value. Without it the current value is flipped."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	habit, err := models.ParseHabit(c.Habit)
	if err != nil {
		return err
	}
	date, err := utils.ParseOptionalDate(c.Date)
	if err != nil {
		return err
	}

	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}

	value := true
	if c.Value != nil {
		value = *c.Value
	} else {
		day := t.Today()
		if date != nil {
			day = *date
		}
		current, err := t.Day(bg, day)
		if err != nil {
			return err
		}
		value = !current.Get(habit)
	}

	day, err := t.ToggleHabit(bg, habit, value, date)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s on %s (%d%% complete)\n", check(day.Get(habit)), habit, day.Date, day.Completion())
	return nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	day, err := t.TodayHabits(bg)
	if err != nil {
		return err
	}

	ctx.Printf("Habits for %s:\n\n", t.Today())
	for _, h := range models.AllHabits {
		ctx.Printf("%s %s\n", check(day.Get(h)), h)
	}
	ctx.Printf("\n%d/%d recorded (%d%%)\n", day.Completed(), len(models.AllHabits), day.Completion())
	return nil
}

type HabitLogCmd struct {
	Days int `help:"Number of days to show." default:"14"`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}

	today := t.Today()
	from := today.AddDays(-(c.Days - 1))
	report, err := t.Streak(bg, constants.DefaultLookbackDays)
	if err != nil {
		return err
	}
	days, err := t.HabitRange(bg, from, today)
	if err != nil {
		return err
	}
	byDate := streak.Normalize(days)

	const nameWidth = 12
	ctx.Printf("Habit log (last %d days):\n\n", c.Days)
	ctx.Printf("%-*s", nameWidth, "Habit")
	for d := from; !d.After(today); d = d.AddDays(1) {
		ctx.Printf(" %5s", fmt.Sprintf("%02d/%02d", d.Month, d.Day))
	}
	ctx.Printf("\n%s\n", strings.Repeat("-", nameWidth+6*c.Days))

	for _, h := range models.AllHabits {
		ctx.Printf("%-*s", nameWidth, h)
		for d := from; !d.After(today); d = d.AddDays(1) {
			mark := "."
			if byDate[d].Get(h) {
				mark = "x"
			}
			ctx.Printf(" %5s", mark)
		}
		ctx.Printf("\n")
	}

	ctx.Printf("%-*s", nameWidth, "streak")
	for _, cell := range streak.Timeline(report.Days, report.StreakData, from, today, today) {
		ctx.Printf(" %5s", streakbar.Glyph(cell))
	}
	ctx.Printf("\n")
	return nil
}

type HabitStreakCmd struct {
	Lookback int `help:"Days of history to scan. 0 scans back to the first month without records." default:"90"`
	Show     int `help:"Days to draw in the streak bar." default:"30"`
}

func (c *HabitStreakCmd) Run(ctx *cli.Context) error {
	if c.Lookback < 0 || c.Show < 1 {
		return fmt.Errorf("--lookback must be >= 0 and --show >= 1")
	}
	bg := context.Background()
	t, err := ctx.Tracker(bg)
	if err != nil {
		return err
	}
	report, err := t.Streak(bg, c.Lookback)
	if err != nil {
		return err
	}

	ctx.Printf("%s\n\n", streakbar.Summary(report.StreakData))
	from := report.Today.AddDays(-(c.Show - 1))
	ctx.Printf("%s\n", streakbar.Bar(streak.Timeline(report.Days, report.StreakData, from, report.Today, report.Today)))
	ctx.Printf("%s\n", streakbar.Legend())

	for d := from; !d.After(report.Today); d = d.AddDays(1) {
		if m, ok := report.MilestoneDays[d]; ok {
			ctx.Printf("★ %d-day milestone reached on %s\n", m, d)
		}
	}
	return nil
}
