// Package injection computes the weekly injection due-state, site rotation and
// dose numbering from injection history.
package injection

import (
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/dose"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Config is the pen configuration the scheduler works against.
type Config struct {
	// DosesPerPen is the length of the dose cycle. Values <= 0 fall back to
	// the standard four-dose pen.
	DosesPerPen     int
	TrackGoldenDose bool
}

func (c Config) penSize() int {
	if c.DosesPerPen <= 0 {
		return constants.DefaultDosesPerPen
	}
	return c.DosesPerPen
}

// Cadence returns the due-state for an injection last taken on last.
// Day 0 is the injection day, so day 6 is the seventh day and the next due day.
func Cadence(last, today models.LocalDate) (kind models.StatusKind, daysUntil, daysOverdue int) {
	since := today.DaysSince(last)
	if since < 0 {
		since = 0
	}
	switch {
	case since < constants.InjectionDueOffset:
		return models.StatusDone, constants.InjectionCadenceDays - since, 0
	case since == constants.InjectionDueOffset:
		return models.StatusDue, 0, 0
	default:
		return models.StatusOverdue, 0, since - constants.InjectionDueOffset
	}
}

// NextSite returns the site after last in rotation order, never last itself.
// With no history it returns the first site in the rotation.
func NextSite(last *models.Site) models.Site {
	if last == nil || !last.Valid() {
		return models.AllSites[0]
	}
	for i, s := range models.AllSites {
		if s == *last {
			return models.AllSites[(i+1)%len(models.AllSites)]
		}
	}
	return models.AllSites[0]
}

// NextDose returns the dose number following lastDose in a cycle of penSize.
func NextDose(lastDose, penSize int) int {
	if lastDose <= 0 || lastDose >= penSize {
		return 1
	}
	return lastDose + 1
}

// DosesRemaining is the number of regular doses left in the current pen
// before nextDose is taken.
func DosesRemaining(nextDose, penSize int) int {
	return penSize - nextDose + 1
}

// GoldenDoseNumber is the dose number recorded for a golden dose.
func GoldenDoseNumber(cfg Config) int {
	return cfg.penSize() + 1
}

// Latest returns the most recent injection in history, regular or golden.
// History may be in any order; on equal dates the earlier slice element wins.
func Latest(history []models.Injection) *models.Injection {
	return latestMatching(history, func(models.Injection) bool { return true })
}

// LatestRegular returns the most recent non-golden injection.
func LatestRegular(history []models.Injection) *models.Injection {
	return latestMatching(history, func(i models.Injection) bool { return !i.IsGoldenDose })
}

func latestMatching(history []models.Injection, keep func(models.Injection) bool) *models.Injection {
	var latest *models.Injection
	for i := range history {
		if !keep(history[i]) {
			continue
		}
		if latest == nil || history[i].Date.After(latest.Date) {
			latest = &history[i]
		}
	}
	if latest == nil {
		return nil
	}
	out := *latest
	return &out
}

// Compute derives the injection status for today from history.
func Compute(history []models.Injection, today models.LocalDate, cfg Config) models.InjectionStatus {
	penSize := cfg.penSize()
	last := Latest(history)
	if last == nil {
		return models.InjectionStatus{
			Status:         models.StatusDue,
			SuggestedSite:  NextSite(nil),
			NextDose:       1,
			DosesRemaining: penSize,
		}
	}

	status := models.InjectionStatus{
		SuggestedSite: NextSite(&last.Site),
		LastInjection: last,
	}
	status.Status, status.DaysUntil, status.DaysOverdue = Cadence(last.Date, today)

	lastDose := 0
	if regular := LatestRegular(history); regular != nil {
		lastDose = regular.DoseNumber
	}
	status.NextDose = NextDose(lastDose, penSize)
	status.DosesRemaining = DosesRemaining(status.NextDose, penSize)
	status.GoldenDoseAvailable = cfg.TrackGoldenDose && !last.IsGoldenDose && lastDose == penSize
	return status
}

// Advance projects the status after logging inj, without consulting history.
// It is used for optimistic updates; the server result replaces it later.
// A backdated inj older than prev's last injection changes nothing that
// Compute derives from the latest record.
func Advance(prev models.InjectionStatus, inj models.Injection, today models.LocalDate, cfg Config) models.InjectionStatus {
	if last := prev.LastInjection; last != nil && inj.Date.Before(last.Date) {
		next := prev
		next.Status, next.DaysUntil, next.DaysOverdue = Cadence(last.Date, today)
		return next
	}

	penSize := cfg.penSize()
	next := models.InjectionStatus{
		SuggestedSite:  NextSite(&inj.Site),
		NextDose:       prev.NextDose,
		DosesRemaining: prev.DosesRemaining,
	}
	injCopy := inj
	next.LastInjection = &injCopy
	next.Status, next.DaysUntil, next.DaysOverdue = Cadence(inj.Date, today)

	if !inj.IsGoldenDose {
		next.NextDose = NextDose(inj.DoseNumber, penSize)
		next.DosesRemaining = DosesRemaining(next.NextDose, penSize)
		next.GoldenDoseAvailable = cfg.TrackGoldenDose && inj.DoseNumber == penSize
	}
	if next.NextDose <= 0 {
		next.NextDose = 1
		next.DosesRemaining = penSize
	}
	return next
}

// DoseNumberFor returns the dose number a new injection should carry.
func DoseNumberFor(status models.InjectionStatus, golden bool, cfg Config) int {
	if golden {
		return GoldenDoseNumber(cfg)
	}
	if status.NextDose <= 0 {
		return 1
	}
	return status.NextDose
}

// DaysAfterOverdue returns how many days after becoming overdue an injection
// logged on at was taken, relative to the previous injection on prev.
// Zero means it was taken on the first overdue day; negative means it was not late.
func DaysAfterOverdue(prev, at models.LocalDate) int {
	return at.DaysSince(prev) - constants.InjectionCadenceDays
}

// ConfigFor resolves the pen plan for settings into a scheduler config.
func ConfigFor(settings models.Settings) (Config, dose.Plan, error) {
	plan, err := dose.Resolve(settings)
	if err != nil {
		return Config{}, dose.Plan{}, err
	}
	return Config{DosesPerPen: plan.DosesPerPen, TrackGoldenDose: settings.TrackGoldenDose}, plan, nil
}
