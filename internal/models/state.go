package models

import "time"

// AccountantState is the durable state of the step accountant. Every field is
// written to storage after each mutation and read back at start-up.
type AccountantState struct {
	// TrackedDay is the calendar day TotalSteps belongs to.
	TrackedDay Day
	// TotalSteps is today's step count as seen by the app.
	TotalSteps int
	// LastCounterValue is the baseline of the cumulative hardware counter.
	// Only meaningful when CounterBaselined is true.
	LastCounterValue float64
	// CounterBaselined is false until the first absolute reading after
	// start, reset or rollover.
	CounterBaselined bool
	// AnchorHour is the hour currently being accumulated.
	AnchorHour int
	// StepsAtAnchor is TotalSteps at the moment the anchor hour opened.
	StepsAtAnchor int
}

// NewAccountantState returns a fresh state for the day and hour containing now.
func NewAccountantState(now time.Time) AccountantState {
	return AccountantState{
		TrackedDay: DayOf(now),
		AnchorHour: HourOf(now),
	}
}

// OpenHourSteps returns the steps accumulated in the open hour so far.
func (s AccountantState) OpenHourSteps() int {
	return s.TotalSteps - s.StepsAtAnchor
}
