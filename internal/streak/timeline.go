package streak

import "github.com/prompt2production/needled-mobile-sub000/internal/models"

// Cell is one rendered calendar day.
type Cell struct {
	Date       models.LocalDate
	Completion int
	Position   models.SegmentPosition
	Milestone  models.Milestone // zero when none
	Future     bool
}

// Timeline lays out the closed range [from, to] for rendering.
func Timeline(byDate map[models.LocalDate]models.HabitDay, data models.StreakData, from, to, today models.LocalDate) []Cell {
	if to.Before(from) {
		return nil
	}
	cells := make([]Cell, 0, to.DaysSince(from)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		cell := Cell{
			Date:      d,
			Position:  Position(data, d),
			Milestone: data.MilestoneDays[d],
			Future:    d.After(today),
		}
		if day, ok := byDate[d]; ok {
			cell.Completion = CompletionPercent(&day)
		}
		cells = append(cells, cell)
	}
	return cells
}
