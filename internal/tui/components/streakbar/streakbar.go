// Package streakbar renders streak timelines for the terminal.
package streakbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/streak"
)

var (
	streakStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	milestoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	partialStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Glyph is the bar character for one cell, without styling.
func Glyph(c streak.Cell) string {
	if c.Future {
		return " "
	}
	if c.Milestone != 0 {
		return "★"
	}
	switch c.Position {
	case models.SegmentSingle:
		return "●"
	case models.SegmentStart:
		return "╺"
	case models.SegmentContinue:
		return "━"
	case models.SegmentEnd:
		return "╸"
	}
	switch {
	case c.Completion >= 66:
		return "▪"
	case c.Completion > 0:
		return "·"
	}
	return "○"
}

func styled(c streak.Cell) string {
	g := Glyph(c)
	switch {
	case c.Milestone != 0 && !c.Future:
		return milestoneStyle.Render(g)
	case c.Position != models.SegmentNone && !c.Future:
		return streakStyle.Render(g)
	case c.Completion > 0:
		return partialStyle.Render(g)
	}
	return emptyStyle.Render(g)
}

// Bar renders cells left to right, one glyph per day.
func Bar(cells []streak.Cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(styled(c))
	}
	return b.String()
}

// Summary is the one-line "current / best" headline.
func Summary(data models.StreakData) string {
	current := fmt.Sprintf("%d day", data.CurrentStreak)
	if data.CurrentStreak != 1 {
		current += "s"
	}
	return fmt.Sprintf("🔥 %s current, %d best", streakStyle.Render(current), data.BestStreak)
}

// Legend explains the glyphs used by Bar.
func Legend() string {
	return emptyStyle.Render("● streak day  ━ streak run  ★ milestone  ▪ 2+ habits  · 1 habit  ○ none")
}
