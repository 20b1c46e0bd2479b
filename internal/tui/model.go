// Package tui is the interactive dashboard. It renders straight from the
// tracker's cache and redraws whenever a cached view changes, so optimistic
// writes show up before the server confirms them.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/tracker"
)

const loadTimeout = 15 * time.Second

// After a failed load, cache notifications do not trigger reloads. A retry
// tick does, starting at retryBase and doubling up to retryMax.
const (
	retryBase = 2 * time.Second
	retryMax  = time.Minute
)

type mode int

const (
	modeDashboard mode = iota
	modeInjectionForm
	modeWeighInForm
)

type dashboardMsg struct {
	dash tracker.Dashboard
	err  error
}

// cacheChangedMsg coalesces any number of cache notifications.
type cacheChangedMsg struct{}

// retryMsg reloads after a failed load. Ticks from an earlier failure carry
// a stale seq and are dropped.
type retryMsg struct{ seq int }

type mutationDoneMsg struct {
	what string
	err  error
}

type Model struct {
	tracker  *tracker.Tracker
	lookback int

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	mode          mode
	form          *huh.Form
	injectionForm *InjectionFormModel
	weighInForm   *WeighInFormModel

	dash    tracker.Dashboard
	loaded  bool
	loading bool
	// dirty records a change that arrived while a load was running.
	dirty bool
	// backoff is non-zero while the last load failed.
	backoff  time.Duration
	retrySeq int

	cursor int
	status string
	err    error

	events      chan struct{}
	unsubscribe func()

	width    int
	height   int
	quitting bool
}

// NewModel subscribes to t's cache. Call Close when the program exits.
func NewModel(t *tracker.Tracker, lookbackDays int) Model {
	events := make(chan struct{}, 1)
	unsubscribe := t.Subscribe(func(cache.Key) {
		select {
		case events <- struct{}{}:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = headingStyle

	return Model{
		tracker:     t,
		lookback:    lookbackDays,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		loading:     true,
		events:      events,
		unsubscribe: unsubscribe,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), m.waitForChange())
}

// Close stops listening to the cache.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) load() tea.Cmd {
	t, lookback := m.tracker, m.lookback
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		d, err := t.Dashboard(ctx, lookback)
		return dashboardMsg{dash: d, err: err}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return retryBase
	}
	if d *= 2; d > retryMax {
		return retryMax
	}
	return d
}

func (m Model) retryAfter(d time.Duration) tea.Cmd {
	seq := m.retrySeq
	return tea.Tick(d, func(time.Time) tea.Msg { return retryMsg{seq: seq} })
}

func (m Model) waitForChange() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		<-events
		return cacheChangedMsg{}
	}
}

func (m Model) toggle(h models.Habit, value bool) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		_, err := t.ToggleHabit(context.Background(), h, value, nil)
		return mutationDoneMsg{what: h.String() + " updated", err: err}
	}
}

func (m Model) logInjection(in tracker.InjectionInput) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		inj, err := t.LogInjection(context.Background(), in)
		return mutationDoneMsg{what: "Dose " + strconv.Itoa(inj.DoseNumber) + " logged", err: err}
	}
}

func (m Model) logWeighIn(weight float64) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		_, err := t.LogWeighIn(context.Background(), weight, nil)
		return mutationDoneMsg{what: "Weigh-in logged", err: err}
	}
}
