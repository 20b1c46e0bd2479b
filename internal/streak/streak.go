// Package streak derives habit streaks and milestones from a collection of
// HabitDay records. Everything here is pure: "today" is always supplied by the
// caller.
package streak

import (
	"sort"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Options bounds the observed range.
type Options struct {
	// Today is the user's local calendar day. Later dates are ignored.
	Today models.LocalDate
	// LookbackDays limits the walk to the LookbackDays days ending on Today.
	// Zero means unbounded.
	LookbackDays int
}

// Normalize keys days by date. When a date appears more than once the last
// occurrence wins.
func Normalize(days []models.HabitDay) map[models.LocalDate]models.HabitDay {
	byDate := make(map[models.LocalDate]models.HabitDay, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}
	return byDate
}

// Compute normalizes days and computes streak data.
func Compute(days []models.HabitDay, opts Options) models.StreakData {
	return ComputeMap(Normalize(days), opts)
}

// ComputeMap computes current and best streak, the set of days belonging to a
// run of at least seven perfect days, and the milestone days of those runs.
func ComputeMap(byDate map[models.LocalDate]models.HabitDay, opts Options) models.StreakData {
	data := models.StreakData{
		StreakDays:    make(map[models.LocalDate]bool),
		MilestoneDays: make(map[models.LocalDate]models.Milestone),
	}

	perfect := perfectDays(byDate, opts)
	if len(perfect) == 0 {
		return data
	}

	runStart := 0
	lastRun := 0
	for i := 1; i <= len(perfect); i++ {
		if i < len(perfect) && perfect[i].DaysSince(perfect[i-1]) == 1 {
			continue
		}
		run := perfect[runStart:i]
		lastRun = len(run)
		if lastRun > data.BestStreak {
			data.BestStreak = lastRun
		}
		tagRun(&data, run)
		runStart = i
	}

	// Only a run ending today or yesterday is still live.
	mostRecent := perfect[len(perfect)-1]
	if gap := opts.Today.DaysSince(mostRecent); gap == 0 || gap == 1 {
		data.CurrentStreak = lastRun
	}

	return data
}

func perfectDays(byDate map[models.LocalDate]models.HabitDay, opts Options) []models.LocalDate {
	var earliest models.LocalDate
	if opts.LookbackDays > 0 {
		earliest = opts.Today.AddDays(-(opts.LookbackDays - 1))
	}

	perfect := make([]models.LocalDate, 0, len(byDate))
	for date, day := range byDate {
		if date.After(opts.Today) {
			continue
		}
		if opts.LookbackDays > 0 && date.Before(earliest) {
			continue
		}
		if day.Perfect() {
			perfect = append(perfect, date)
		}
	}
	sort.Slice(perfect, func(i, j int) bool { return perfect[i].Before(perfect[j]) })
	return perfect
}

func tagRun(data *models.StreakData, run []models.LocalDate) {
	if len(run) < constants.MinStreakLength {
		return
	}
	for _, d := range run {
		data.StreakDays[d] = true
	}
	for _, m := range models.Milestones {
		if int(m) <= len(run) {
			data.MilestoneDays[run[int(m)-1]] = m
		}
	}
}

// CompletionPercent is 0 for a missing record and 0/33/66/100 otherwise.
func CompletionPercent(day *models.HabitDay) int {
	if day == nil {
		return 0
	}
	return day.Completion()
}

// Position places d within the rendered streak bar using its calendar neighbors.
func Position(data models.StreakData, d models.LocalDate) models.SegmentPosition {
	if !data.InStreak(d) {
		return models.SegmentNone
	}
	prev := data.InStreak(d.AddDays(-1))
	next := data.InStreak(d.AddDays(1))
	switch {
	case prev && next:
		return models.SegmentContinue
	case next:
		return models.SegmentStart
	case prev:
		return models.SegmentEnd
	default:
		return models.SegmentSingle
	}
}
