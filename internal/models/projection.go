package models

import "time"

// ProjectionStatus classifies progress toward the daily goal.
type ProjectionStatus int

const (
	ProjectionUnknown ProjectionStatus = iota
	ProjectionBehind
	ProjectionOnTrack
	ProjectionReached
)

// String returns the display label.
func (s ProjectionStatus) String() string {
	switch s {
	case ProjectionBehind:
		return "Behind pace"
	case ProjectionOnTrack:
		return "On track"
	case ProjectionReached:
		return "Goal reached"
	default:
		return "Not enough data"
	}
}

// GoalProjection estimates where a day will end relative to the goal.
type GoalProjection struct {
	LastUpdated time.Time
	// ReachAt is when the goal is expected to be met; zero when already met
	// or not expected today.
	ReachAt      time.Time
	Day          Day
	Confidence   string
	VsHistorical string
	VsLastWeek   string
	// Rate is the current pace in steps per hour.
	Rate float64
	// HistoricalAvg is the mean daily total over recent active days.
	HistoricalAvg float64
	Goal          int
	Current       int
	Projected     int
	ActiveHours   int
	Status        ProjectionStatus
}

// Remaining returns the steps still needed, never negative.
func (p GoalProjection) Remaining() int {
	if p.Current >= p.Goal {
		return 0
	}
	return p.Goal - p.Current
}

// Percent returns progress toward the goal, capped at 100.
func (p GoalProjection) Percent() float64 {
	if p.Goal <= 0 {
		return 0
	}
	pct := float64(p.Current) / float64(p.Goal) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
