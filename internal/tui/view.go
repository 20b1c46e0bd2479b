package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/streak"
	"github.com/prompt2production/needled-mobile-sub000/internal/tui/components/streakbar"
)

const barDays = 28

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("needled") + " " + mutedStyle.Render(m.tracker.Today().String())
	if m.loading {
		header += " " + m.spinner.View()
	}

	var content string
	switch {
	case m.mode != modeDashboard && m.form != nil:
		content = m.form.View()
	case !m.loaded:
		content = m.spinner.View() + " Loading..."
	default:
		content = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, m.viewHabits(), m.viewStreak()),
			lipgloss.JoinHorizontal(lipgloss.Top, m.viewInjection(), m.viewWeighIn()),
		)
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	))
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return dangerStyle.Render("✗ " + apperrors.Format(m.err))
	}
	if m.status != "" {
		return successStyle.Render("✓ " + m.status)
	}
	return ""
}

func (m Model) viewHabits() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Today") + "\n")
	for i, h := range models.AllHabits {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		mark := "○"
		if m.dash.Today.Get(h) {
			mark = successStyle.Render("✓")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, h)
	}
	fmt.Fprintf(&b, "%s", mutedStyle.Render(fmt.Sprintf("%d%% complete", m.dash.Today.Completion())))
	return panelStyle.Render(b.String())
}

func (m Model) viewStreak() string {
	report := m.dash.Streak
	var b strings.Builder
	b.WriteString(headingStyle.Render("Streak") + "\n")
	b.WriteString(streakbar.Summary(report.StreakData) + "\n")
	if !report.Today.IsZero() {
		from := report.Today.AddDays(-(barDays - 1))
		b.WriteString(streakbar.Bar(streak.Timeline(report.Days, report.StreakData, from, report.Today, report.Today)) + "\n")
	}
	week := 0
	for _, d := range m.dash.Week {
		if d.Perfect() {
			week++
		}
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d perfect days this week", week)))
	return panelStyle.Render(b.String())
}

func injectionHeadline(s models.InjectionStatus) string {
	switch s.Status {
	case models.StatusDone:
		return successStyle.Render(fmt.Sprintf("Done, next in %d days", s.DaysUntil))
	case models.StatusOverdue:
		return dangerStyle.Render(fmt.Sprintf("Overdue by %d days", s.DaysOverdue))
	default:
		return warningStyle.Render("Due today")
	}
}

func (m Model) viewInjection() string {
	s := m.dash.Injection
	var b strings.Builder
	b.WriteString(headingStyle.Render("Injection") + "\n")
	b.WriteString(injectionHeadline(s) + "\n")
	fmt.Fprintf(&b, "Next: dose %d, %s\n", s.NextDose, s.SuggestedSite.Label())
	fmt.Fprintf(&b, "%d left in pen", s.DosesRemaining)
	if s.GoldenDoseAvailable {
		b.WriteString("\n" + warningStyle.Render("✨ golden dose available"))
	}
	if s.LastInjection != nil && s.LastInjection.Provisional() {
		b.WriteString("\n" + mutedStyle.Render("saving..."))
	}
	return panelStyle.Render(b.String())
}

func formatDelta(label string, v *float64) string {
	if v == nil {
		return fmt.Sprintf("%s: -", label)
	}
	return fmt.Sprintf("%s: %+.1f kg", label, *v)
}

func (m Model) viewWeighIn() string {
	l := m.dash.WeighIn
	var b strings.Builder
	b.WriteString(headingStyle.Render("Weight") + "\n")
	if l.WeighIn == nil {
		b.WriteString(mutedStyle.Render("No weigh-ins yet"))
		return panelStyle.Render(b.String())
	}
	fmt.Fprintf(&b, "%.1f kg on %s\n", l.WeighIn.Weight, l.WeighIn.Date)
	b.WriteString(formatDelta("Week", l.WeekChange) + "\n")
	b.WriteString(formatDelta("Total", l.TotalChange) + "\n")
	if l.CanWeighIn {
		b.WriteString(warningStyle.Render("Weigh-in due this week"))
	} else {
		b.WriteString(mutedStyle.Render("Weighed in this week"))
	}
	return panelStyle.Render(b.String())
}
