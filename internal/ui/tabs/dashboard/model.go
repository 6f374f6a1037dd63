// Package dashboard provides today's step overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/app"
	"github.com/j-veylop/stepmeter/internal/ui/components"
)

type keyMap struct {
	Reset   key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset counter"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state        *app.State
	now          func() time.Time
	keys         keyMap
	spinner      components.LoadingSpinner
	viewport     viewport.Model
	goalBar      components.GoalBar
	width        int
	height       int
	confirmReset bool
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		now:      time.Now,
		keys:     defaultKeyMap(),
		spinner:  components.NewSpinner("Loading today's steps..."),
		viewport: viewport.New(0, 0),
		goalBar:  components.NewGoalBar(),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.StepsUpdatedMsg, app.SeriesUpdatedMsg, app.ProjectionUpdatedMsg:
		cmds = append(cmds, m.syncGoalBar())

	case components.AnimationTickMsg:
		var cmd tea.Cmd
		m.goalBar, cmd = m.goalBar.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		if m.state.IsInitialLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) syncGoalBar() tea.Cmd {
	_, total, _ := m.state.GetSteps()
	goal := m.state.GetGoal()
	if goal <= 0 {
		return nil
	}
	return m.goalBar.SetPercent(float64(total) / float64(goal) * 100)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.confirmReset {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmReset = false
			return func() tea.Msg { return app.ResetRequestMsg{} }
		case key.Matches(msg, m.keys.Cancel):
			m.confirmReset = false
		}
		return nil
	}

	if key.Matches(msg, m.keys.Reset) {
		m.confirmReset = true
		return nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// ConfirmingReset reports whether the reset prompt is showing.
func (m *Model) ConfirmingReset() bool {
	return m.confirmReset
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Reset}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Reset},
		{m.keys.Confirm, m.keys.Cancel},
	}
}
