// Package accountant turns normalized sensor events into today's step total
// and hourly ledger commits.
//
// The accountant is driven from a single goroutine. It never blocks on
// storage: hour commits and state snapshots are handed to a HourCommitter
// and a StateSaver that persist them elsewhere.
package accountant

import (
	"math"
	"sync"
	"time"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/pedometer"
)

// HourCommitter receives closed hours. Implementations must not block.
type HourCommitter interface {
	CommitHour(rec models.HourlyStepRecord)
}

// StateSaver receives a snapshot after every mutation. Implementations must
// not block.
type StateSaver interface {
	SaveState(state models.AccountantState)
}

// Update describes the effect of one accountant operation.
type Update struct {
	Day         models.Day
	Committed   []models.HourlyStepRecord
	Total       int
	OpenHour    int
	Changed     bool
	RolledOver  bool
	Rebaselined bool
}

// Accountant maintains AccountantState.
type Accountant struct {
	ledger HourCommitter
	saver  StateSaver
	state  models.AccountantState
	mu     sync.RWMutex
}

// New returns an accountant resuming from state. A zero TrackedDay is
// initialized from now.
func New(state models.AccountantState, ledger HourCommitter, saver StateSaver, now time.Time) *Accountant {
	if state.TrackedDay.IsZero() {
		state = models.NewAccountantState(now)
	}
	return &Accountant{
		state:  clampAnchor(state),
		ledger: ledger,
		saver:  saver,
	}
}

// State returns a copy of the current state.
func (a *Accountant) State() models.AccountantState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Total returns today's step total.
func (a *Accountant) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.TotalSteps
}

// HandleEvent applies one sensor event observed at now.
//
// Day rollover is checked first so the event lands in the new day. After the
// event is applied, an hour change commits the closed hour to the ledger.
func (a *Accountant) HandleEvent(ev pedometer.Event, now time.Time) Update {
	a.mu.Lock()
	defer a.mu.Unlock()

	var u Update
	a.rollover(now, &u)

	before := a.state.TotalSteps
	switch ev.Kind {
	case pedometer.KindAbsolute:
		a.applyAbsolute(ev.Value, &u)
	case pedometer.KindPulse:
		a.state.TotalSteps++
	default:
		logger.Warn("Ignoring unknown sensor event", "kind", ev.Kind)
	}
	if a.state.TotalSteps != before {
		u.Changed = true
	}

	a.hourBoundary(now, &u)
	a.persist()
	return a.fill(u)
}

// Tick checks for day rollover and hour boundaries without an event. It is
// called periodically so a quiet device still closes its day.
func (a *Accountant) Tick(now time.Time) Update {
	a.mu.Lock()
	defer a.mu.Unlock()

	var u Update
	a.rollover(now, &u)
	anchor := a.state.AnchorHour
	a.hourBoundary(now, &u)
	if u.RolledOver || anchor != a.state.AnchorHour {
		a.persist()
	}
	return a.fill(u)
}

// Reset zeroes today's total and forgets the counter baseline. The anchor
// hour is moved to now. Ledger history is left untouched.
func (a *Accountant) Reset(now time.Time) Update {
	a.mu.Lock()
	defer a.mu.Unlock()

	var u Update
	a.rollover(now, &u)

	u.Changed = a.state.TotalSteps != 0
	a.state.TotalSteps = 0
	a.state.LastCounterValue = 0
	a.state.CounterBaselined = false
	a.state.StepsAtAnchor = 0
	a.state.AnchorHour = models.HourOf(now)

	a.persist()
	logger.Info("Step counter reset", "day", a.state.TrackedDay)
	return a.fill(u)
}

func (a *Accountant) applyAbsolute(value float64, u *Update) {
	if !a.state.CounterBaselined {
		a.state.LastCounterValue = value
		a.state.CounterBaselined = true
		a.state.TotalSteps = 0
		a.state = clampAnchor(a.state)
		logger.Debug("Hardware counter baselined", "value", value)
		return
	}

	delta := value - a.state.LastCounterValue
	if delta <= 0 {
		if delta < 0 {
			logger.Warn("Step counter discontinuity, re-baselining",
				"previous", a.state.LastCounterValue, "value", value)
			u.Rebaselined = true
		}
		a.state.LastCounterValue = value
		return
	}

	a.state.TotalSteps += int(math.Floor(delta))
	a.state.LastCounterValue = value
}

// rollover closes the tracked day when now falls on a later day. The open
// hour of the old day is committed before the state is reset.
func (a *Accountant) rollover(now time.Time, u *Update) {
	today := models.DayOf(now)
	if today == a.state.TrackedDay {
		return
	}

	a.commit(a.state.TrackedDay, a.state.AnchorHour, a.state.OpenHourSteps(), now, u)

	logger.Info("Day rollover", "from", a.state.TrackedDay, "to", today,
		"steps", a.state.TotalSteps)
	a.state = models.NewAccountantState(now)
	u.RolledOver = true
	u.Changed = true
}

// hourBoundary commits the anchor hour when now is in a different hour and
// opens a new anchor at the current total.
func (a *Accountant) hourBoundary(now time.Time, u *Update) {
	hour := models.HourOf(now)
	if hour == a.state.AnchorHour {
		return
	}

	a.commit(a.state.TrackedDay, a.state.AnchorHour, a.state.OpenHourSteps(), now, u)
	a.state.AnchorHour = hour
	a.state.StepsAtAnchor = a.state.TotalSteps
}

func (a *Accountant) commit(day models.Day, hour, steps int, now time.Time, u *Update) {
	if steps <= 0 {
		return
	}
	rec := models.HourlyStepRecord{
		Day:       day,
		Hour:      hour,
		Steps:     steps,
		UpdatedAt: now,
	}
	if a.ledger != nil {
		a.ledger.CommitHour(rec)
	}
	u.Committed = append(u.Committed, rec)
	logger.Debug("Hour committed", "day", day, "hour", hour, "steps", steps)
}

func (a *Accountant) persist() {
	if a.saver != nil {
		a.saver.SaveState(a.state)
	}
}

func (a *Accountant) fill(u Update) Update {
	u.Day = a.state.TrackedDay
	u.Total = a.state.TotalSteps
	u.OpenHour = a.state.OpenHourSteps()
	return u
}

// clampAnchor keeps the open-hour delta non-negative whenever the total is
// lowered.
func clampAnchor(s models.AccountantState) models.AccountantState {
	if s.StepsAtAnchor > s.TotalSteps {
		s.StepsAtAnchor = s.TotalSteps
	}
	if s.StepsAtAnchor < 0 {
		s.StepsAtAnchor = 0
	}
	return s
}
