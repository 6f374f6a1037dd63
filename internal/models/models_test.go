package models

import (
	"testing"
	"time"
)

func TestDayOf(t *testing.T) {
	ts := time.Date(2026, 3, 9, 23, 59, 0, 0, time.Local)
	if got := DayOf(ts); got != "2026-03-09" {
		t.Errorf("DayOf() = %q, want 2026-03-09", got)
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Day
		wantErr bool
	}{
		{"Valid", "2026-01-31", "2026-01-31", false},
		{"BadMonth", "2026-13-01", "", true},
		{"Garbage", "yesterday", "", true},
		{"Empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDay(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDay_AddDays(t *testing.T) {
	tests := []struct {
		day  Day
		n    int
		want Day
	}{
		{"2026-01-01", -1, "2025-12-31"},
		{"2026-02-28", 1, "2026-03-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2026-06-15", 0, "2026-06-15"},
	}
	for _, tt := range tests {
		if got := tt.day.AddDays(tt.n); got != tt.want {
			t.Errorf("%s.AddDays(%d) = %s, want %s", tt.day, tt.n, got, tt.want)
		}
	}
}

func TestDay_Before(t *testing.T) {
	if !Day("2025-12-31").Before("2026-01-01") {
		t.Error("expected 2025-12-31 before 2026-01-01")
	}
	if Day("2026-01-01").Before("2026-01-01") {
		t.Error("a day is not before itself")
	}
}

func TestDay_Label(t *testing.T) {
	if got := Day("2026-01-05").Label(); got != "Mon 05 Jan" {
		t.Errorf("Label() = %q, want %q", got, "Mon 05 Jan")
	}
	if got := Day("nope").Label(); got != "Unknown" {
		t.Errorf("Label() = %q, want Unknown", got)
	}
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		tr       TimeRange
		name     string
		days     int
		nextName string
	}{
		{TimeRange7Days, "7 Days", 7, "30 Days"},
		{TimeRange30Days, "30 Days", 30, "90 Days"},
		{TimeRange90Days, "90 Days", 90, "7 Days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.tr.Days(); got != tt.days {
				t.Errorf("Days() = %d, want %d", got, tt.days)
			}
			if got := tt.tr.Next().String(); got != tt.nextName {
				t.Errorf("Next() = %q, want %q", got, tt.nextName)
			}
		})
	}
	if got := TimeRange(42).String(); got != "Unknown" {
		t.Errorf("String() = %q, want Unknown", got)
	}
}

func TestNewHourlySeries(t *testing.T) {
	day := Day("2026-01-01")
	series := NewHourlySeries(day, []HourlyStepRecord{
		{Day: day, Hour: 10, Steps: 120},
		{Day: day, Hour: 23, Steps: 5},
		{Day: "2025-12-31", Hour: 11, Steps: 999},
		{Day: day, Hour: 24, Steps: 7},
	})

	if len(series) != HoursPerDay {
		t.Fatalf("len(series) = %d, want %d", len(series), HoursPerDay)
	}
	for h, entry := range series {
		if entry.Hour != h {
			t.Errorf("series[%d].Hour = %d", h, entry.Hour)
		}
	}
	if series[10].Steps != 120 || series[23].Steps != 5 {
		t.Errorf("unexpected overlay: %v", series)
	}
	if series[11].Steps != 0 {
		t.Errorf("record from another day leaked into series")
	}
	if series.Total() != 125 {
		t.Errorf("Total() = %d, want 125", series.Total())
	}
	if series.ActiveHours() != 2 {
		t.Errorf("ActiveHours() = %d, want 2", series.ActiveHours())
	}
	hour, steps := series.Peak()
	if hour != 10 || steps != 120 {
		t.Errorf("Peak() = (%d, %d), want (10, 120)", hour, steps)
	}
}

func TestNewHourlySeries_Empty(t *testing.T) {
	series := NewHourlySeries("2026-01-01", nil)
	if len(series) != HoursPerDay || series.Total() != 0 {
		t.Errorf("expected 24 zero entries, got %v", series)
	}
	if v := series.Values(); len(v) != HoursPerDay {
		t.Errorf("len(Values()) = %d", len(v))
	}
}

func TestHourlySeries_Equal(t *testing.T) {
	a := NewHourlySeries("2026-01-01", []HourlyStepRecord{{Day: "2026-01-01", Hour: 3, Steps: 1}})
	b := NewHourlySeries("2026-01-01", []HourlyStepRecord{{Day: "2026-01-01", Hour: 3, Steps: 1}})
	c := NewHourlySeries("2026-01-01", nil)
	if !a.Equal(b) {
		t.Error("identical series reported different")
	}
	if a.Equal(c) {
		t.Error("different series reported equal")
	}
	if a.Equal(a[:5]) {
		t.Error("series of different length reported equal")
	}
}

func TestHourlyStepRecord_Valid(t *testing.T) {
	tests := []struct {
		name string
		rec  HourlyStepRecord
		want bool
	}{
		{"OK", HourlyStepRecord{Day: "2026-01-01", Hour: 0, Steps: 0}, true},
		{"NoDay", HourlyStepRecord{Hour: 1, Steps: 1}, false},
		{"NegativeHour", HourlyStepRecord{Day: "2026-01-01", Hour: -1}, false},
		{"Hour24", HourlyStepRecord{Day: "2026-01-01", Hour: 24}, false},
		{"NegativeSteps", HourlyStepRecord{Day: "2026-01-01", Hour: 2, Steps: -3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAccountantState(t *testing.T) {
	now := time.Date(2026, 1, 1, 14, 30, 0, 0, time.Local)
	s := NewAccountantState(now)
	if s.TrackedDay != "2026-01-01" || s.AnchorHour != 14 {
		t.Errorf("unexpected state %+v", s)
	}
	if s.CounterBaselined || s.TotalSteps != 0 || s.StepsAtAnchor != 0 {
		t.Errorf("fresh state should be zeroed, got %+v", s)
	}
	s.TotalSteps, s.StepsAtAnchor = 50, 20
	if s.OpenHourSteps() != 30 {
		t.Errorf("OpenHourSteps() = %d, want 30", s.OpenHourSteps())
	}
}
