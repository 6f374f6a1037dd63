package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/app"
	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/sensor"
	"github.com/j-veylop/stepmeter/internal/services"
	"github.com/j-veylop/stepmeter/internal/ui/components"
)

var testNow = time.Date(2026, 6, 1, 14, 0, 0, 0, time.Local)

func loadedState() *app.State {
	state := app.NewState()
	state.SetLoading("initial", false)
	day := models.DayOf(testNow)
	state.ApplySnapshot(app.Snapshot{
		Day:   day,
		Total: 4200,
		Goal:  10000,
		Series: models.NewHourlySeries(day, []models.HourlyStepRecord{
			{Day: day, Hour: 8, Steps: 1800},
			{Day: day, Hour: 12, Steps: 2400},
		}),
		Status: services.StatusEvent{Running: true, Source: sensor.KindCounter},
	})
	return state
}

func newTestModel(state *app.State) *Model {
	m := New(state)
	m.now = func() time.Time { return testNow }
	m.SetSize(100, 200)
	return m
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init should start the spinner")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := newTestModel(app.NewState())
	if view := m.View(); !strings.Contains(view, "Loading today's steps") {
		t.Errorf("loading view = %q", view)
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(loadedState())
	view := m.View()

	for _, want := range []string{
		"Today",
		"Tracking via step_counter",
		"4,200",
		"4,200 / 10,000",
		"Busiest hour 12:00",
		"Not enough data",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewSensorUnavailable(t *testing.T) {
	state := loadedState()
	state.SetStatus(services.StatusEvent{Reason: "No step sensor available"})
	m := newTestModel(state)

	view := m.View()
	if !strings.Contains(view, "No step data available") || !strings.Contains(view, "No step sensor available") {
		t.Errorf("view should explain the missing sensor:\n%s", view)
	}
}

func TestModel_ViewProjection(t *testing.T) {
	state := loadedState()
	state.SetProjection(&models.GoalProjection{
		Status:       models.ProjectionOnTrack,
		Confidence:   "medium",
		Rate:         600,
		Projected:    10200,
		Goal:         10000,
		Current:      4200,
		ReachAt:      testNow.Add(9*time.Hour + 40*time.Minute),
		VsHistorical: "Typical for you",
		VsLastWeek:   "Similar to last week",
	})
	m := newTestModel(state)

	view := m.View()
	for _, want := range []string{"On track", "600 steps/h", "10,200 steps", "23:40 (in 9h 40m)", "Typical for you"} {
		if !strings.Contains(view, want) {
			t.Errorf("projection missing %q", want)
		}
	}
}

func TestModel_ResetConfirmation(t *testing.T) {
	m := newTestModel(loadedState())

	if _, cmd := m.Update(keyPress('y')); cmd != nil {
		if _, ok := cmd().(app.ResetRequestMsg); ok {
			t.Fatal("y without a prompt must not reset")
		}
	}

	m.Update(keyPress('x'))
	if !m.ConfirmingReset() {
		t.Fatal("x should open the reset prompt")
	}
	if !strings.Contains(m.View(), "Reset today's counter") {
		t.Error("prompt not rendered")
	}

	m.Update(keyPress('n'))
	if m.ConfirmingReset() {
		t.Error("n should cancel")
	}

	m.Update(keyPress('x'))
	_, cmd := m.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("y should confirm")
	}
	if _, ok := cmd().(app.ResetRequestMsg); !ok {
		t.Error("confirm should request a reset")
	}
	if m.ConfirmingReset() {
		t.Error("prompt should close after confirm")
	}
}

func TestModel_GoalBarFollowsSteps(t *testing.T) {
	state := loadedState()
	m := newTestModel(state)

	_, cmd := m.Update(app.StepsUpdatedMsg{Day: models.DayOf(testNow), Total: 4200})
	if cmd == nil {
		t.Fatal("steps update should start the goal bar animation")
	}
	for range 200 {
		m.Update(components.AnimationTickMsg(testNow))
	}
	if got := m.goalBar.Percent(); got != 42 {
		t.Errorf("goal bar = %v, want 42", got)
	}
}

func TestFormatters(t *testing.T) {
	if formatRate(0) != "---" || formatRate(1234.4) != "1,234 steps/h" {
		t.Errorf("formatRate: %q %q", formatRate(0), formatRate(1234.4))
	}
	if formatReachAt(time.Time{}, testNow) != "---" {
		t.Error("zero reach time should render ---")
	}
	if got := formatReachAt(testNow.Add(-time.Minute), testNow); got != "13:59" {
		t.Errorf("past reach time = %q", got)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
