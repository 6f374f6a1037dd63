// Package history provides the tab for browsing past days.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/app"
	"github.com/j-veylop/stepmeter/internal/models"
)

const loadTimeout = 5 * time.Second

// Store is the read side of the hourly ledger.
type Store interface {
	HourlySeries(ctx context.Context, day models.Day) (models.HourlySeries, error)
	DailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error)
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	PrevDay     key.Binding
	NextDay     key.Binding
	Up          key.Binding
	Down        key.Binding
	ToggleRange key.Binding
	DeleteHour  key.Binding
	DeleteDay   key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next day"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous hour"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next hour"),
		),
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		DeleteHour: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete hour"),
		),
		DeleteDay: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete day"),
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

// historyLoadedMsg carries the selected day and the range totals.
type historyLoadedMsg struct {
	day       models.Day
	series    models.HourlySeries
	totals    []models.DailyTotal
	timeRange models.TimeRange
}

type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state *app.State
	store Store
	now   func() time.Time

	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	day       models.Day
	hour      int
	timeRange models.TimeRange
	series    models.HourlySeries
	totals    []models.DailyTotal

	// pending is the delete waiting for confirmation.
	pending *app.DeleteRequestMsg

	loading     bool
	loaded      bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a history model showing today.
func New(state *app.State, store Store) *Model {
	m := &Model{
		state:     state,
		store:     store,
		now:       time.Now,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange7Days,
	}
	m.day = m.today()
	m.hour = models.HourOf(m.now())
	return m
}

func (m *Model) today() models.Day {
	return models.DayOf(m.now())
}

// Init loads the selected day.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

// loadCmd fetches the selected day's series and the totals of the range
// ending on it.
func (m *Model) loadCmd() tea.Cmd {
	store, day, tr := m.store, m.day, m.timeRange
	return func() tea.Msg {
		if store == nil {
			return historyErrorMsg{err: "Ledger not available"}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		series, err := store.HourlySeries(ctx, day)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		totals, err := store.DailyTotals(ctx, day.AddDays(1-tr.Days()), day)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{day: day, series: series, totals: totals, timeRange: tr}
	}
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		// Drop results for a selection the user has already moved away from.
		if msg.day != m.day || msg.timeRange != m.timeRange {
			break
		}
		m.series = msg.series
		m.totals = msg.totals
		m.loading = false
		m.loaded = true
		m.lastRefresh = m.now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case app.SeriesUpdatedMsg:
		// Committed hours and deletes change both the day and the range.
		if !msg.Day.Before(m.day.AddDays(1-m.timeRange.Days())) && !m.day.Before(msg.Day) {
			cmds = append(cmds, m.reload())
		}

	case app.RefreshMsg:
		cmds = append(cmds, m.reload())

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			cmds = append(cmds, m.reload())
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.pending != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			req := *m.pending
			m.pending = nil
			return func() tea.Msg { return req }
		case key.Matches(msg, m.keys.Cancel):
			m.pending = nil
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.PrevDay):
		return m.selectDay(m.day.AddDays(-1))

	case key.Matches(msg, m.keys.NextDay):
		return m.selectDay(m.day.AddDays(1))

	case key.Matches(msg, m.keys.Up):
		m.hour = (m.hour + models.HoursPerDay - 1) % models.HoursPerDay

	case key.Matches(msg, m.keys.Down):
		m.hour = (m.hour + 1) % models.HoursPerDay

	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		return m.reload()

	case key.Matches(msg, m.keys.DeleteHour):
		if m.hourSteps(m.hour) > 0 {
			m.pending = &app.DeleteRequestMsg{Day: m.day, Hour: m.hour}
		}

	case key.Matches(msg, m.keys.DeleteDay):
		if m.series.Total() > 0 {
			m.pending = &app.DeleteRequestMsg{Day: m.day, Hour: -1}
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// selectDay moves the selection, never past today.
func (m *Model) selectDay(day models.Day) tea.Cmd {
	if m.today().Before(day) || day == m.day {
		return nil
	}
	m.day = day
	return m.reload()
}

func (m *Model) hourSteps(hour int) int {
	if hour < 0 || hour >= len(m.series) {
		return 0
	}
	return m.series[hour].Steps
}

// SelectedDay returns the day being shown.
func (m *Model) SelectedDay() models.Day {
	return m.day
}

// SelectedHour returns the highlighted hour.
func (m *Model) SelectedHour() int {
	return m.hour
}

// PendingDelete returns the delete awaiting confirmation, if any.
func (m *Model) PendingDelete() *app.DeleteRequestMsg {
	return m.pending
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.PrevDay,
		m.keys.NextDay,
		m.keys.ToggleRange,
		m.keys.DeleteHour,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.PrevDay, m.keys.NextDay, m.keys.Up, m.keys.Down},
		{m.keys.ToggleRange, m.keys.DeleteHour, m.keys.DeleteDay},
		{m.keys.Confirm, m.keys.Cancel},
	}
}
