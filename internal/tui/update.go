package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/tracker"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case dashboardMsg:
		m.loading = false
		if msg.err == nil || !m.loaded {
			m.dash = msg.dash
		}
		m.loaded = true
		m.err = msg.err
		if msg.err != nil {
			// A failing read notifies on every attempt; reloading on those
			// would hammer the backend.
			m.dirty = false
			m.backoff = nextBackoff(m.backoff)
			m.retrySeq++
			return m, m.retryAfter(m.backoff)
		}
		m.backoff = 0
		if m.dirty {
			m.dirty = false
			m.loading = true
			return m, m.load()
		}
		return m, nil

	case retryMsg:
		if msg.seq != m.retrySeq || m.backoff == 0 || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.load()

	case cacheChangedMsg:
		switch {
		case m.loading:
			m.dirty = true
		case m.backoff > 0:
			// retryMsg reloads.
		default:
			m.loading = true
			return m, tea.Batch(m.load(), m.waitForChange())
		}
		return m, m.waitForChange()

	case mutationDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.what
		}
		if m.backoff > 0 && !m.loading {
			m.loading = true
			return m, m.load()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode != modeDashboard {
		return m.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(models.AllHabits)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if !m.loaded {
			return m, nil
		}
		h := models.AllHabits[m.cursor]
		return m, m.toggle(h, !m.dash.Today.Get(h))
	case key.Matches(msg, m.keys.Injection):
		if !m.loaded {
			return m, nil
		}
		m.injectionForm = &InjectionFormModel{Site: m.dash.Injection.SuggestedSite}
		m.form = NewInjectionForm(m.injectionForm, m.dash.Injection.GoldenDoseAvailable)
		m.mode = modeInjectionForm
		return m, m.form.Init()
	case key.Matches(msg, m.keys.WeighIn):
		m.weighInForm = &WeighInFormModel{}
		m.form = NewWeighInForm(m.weighInForm)
		m.mode = modeWeighInForm
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing..."
		m.tracker.Refresh()
		if m.backoff > 0 && !m.loading {
			m.backoff = 0
			m.retrySeq++
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.mode = modeDashboard
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.submitForm()
		m.mode = modeDashboard
		m.form = nil
		return m, submit
	case huh.StateAborted:
		m.mode = modeDashboard
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) submitForm() tea.Cmd {
	switch m.mode {
	case modeInjectionForm:
		fm := m.injectionForm
		site := fm.Site
		in := tracker.InjectionInput{Site: &site, Golden: fm.Golden}
		if notes := strings.TrimSpace(fm.Notes); notes != "" {
			in.Notes = &notes
		}
		return m.logInjection(in)
	case modeWeighInForm:
		w, err := parseWeight(m.weighInForm.Weight)
		if err != nil {
			return func() tea.Msg {
				return mutationDoneMsg{err: apperrors.Validation("weight", "%v", err)}
			}
		}
		return m.logWeighIn(w)
	}
	return nil
}
