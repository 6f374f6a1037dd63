package models

import "time"

// HoursPerDay is the number of hourly buckets in a day.
const HoursPerDay = 24

// HourlyStepRecord is the ledger row for one hour of one day.
// (Day, Hour) is the natural key; a second write for the same key replaces
// the first.
type HourlyStepRecord struct {
	UpdatedAt time.Time
	Day       Day
	Hour      int // 0-23
	Steps     int
}

// Valid reports whether the record has a usable key and a non-negative delta.
func (r HourlyStepRecord) Valid() bool {
	return !r.Day.IsZero() && r.Hour >= 0 && r.Hour < HoursPerDay && r.Steps >= 0
}

// HourSteps is one entry of an hourly series.
type HourSteps struct {
	Hour  int
	Steps int
}

// HourlySeries is the 24-entry view of a day, hours 0 through 23 in order.
type HourlySeries []HourSteps

// NewHourlySeries builds a zero-filled series and overlays the given records.
// Records for other days or out-of-range hours are ignored.
func NewHourlySeries(day Day, records []HourlyStepRecord) HourlySeries {
	series := make(HourlySeries, HoursPerDay)
	for h := range series {
		series[h].Hour = h
	}
	for _, r := range records {
		if r.Day != day || r.Hour < 0 || r.Hour >= HoursPerDay {
			continue
		}
		series[r.Hour].Steps = r.Steps
	}
	return series
}

// Total returns the sum of all hours.
func (s HourlySeries) Total() int {
	total := 0
	for _, h := range s {
		total += h.Steps
	}
	return total
}

// Peak returns the busiest hour and its step count.
// It returns hour 0 with 0 steps for an empty series.
func (s HourlySeries) Peak() (hour, steps int) {
	for _, h := range s {
		if h.Steps > steps {
			hour, steps = h.Hour, h.Steps
		}
	}
	return hour, steps
}

// ActiveHours counts hours with at least one step.
func (s HourlySeries) ActiveHours() int {
	n := 0
	for _, h := range s {
		if h.Steps > 0 {
			n++
		}
	}
	return n
}

// Values returns the step counts as float64 for charting.
func (s HourlySeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, h := range s {
		out[i] = float64(h.Steps)
	}
	return out
}

// Equal reports whether two series hold the same values.
func (s HourlySeries) Equal(other HourlySeries) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// DailyTotal is the committed step total of one day.
type DailyTotal struct {
	Day   Day
	Steps int
}
