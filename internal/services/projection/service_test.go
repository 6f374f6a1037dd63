package projection

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/stepmeter/internal/db"
	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services/ledger"
)

const testDay = models.Day("2026-05-20")

func at(hour, minute int) time.Time {
	return testDay.Start().Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newTestService(t *testing.T, goal int) (*Service, *ledger.Service) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	l := ledger.New(database)
	return New(l, goal), l
}

func seedDay(t *testing.T, l *ledger.Service, day models.Day, steps int) {
	t.Helper()
	rec := models.HourlyStepRecord{Day: day, Hour: 12, Steps: steps, UpdatedAt: day.Start()}
	if err := l.CommitHour(context.Background(), rec); err != nil {
		t.Fatalf("CommitHour failed: %v", err)
	}
}

func seriesWith(active int) models.HourlySeries {
	var recs []models.HourlyStepRecord
	for h := 0; h < active; h++ {
		recs = append(recs, models.HourlyStepRecord{Day: testDay, Hour: h + 6, Steps: 100})
	}
	return models.NewHourlySeries(testDay, recs)
}

func TestCalculate_NoData(t *testing.T) {
	svc, _ := newTestService(t, 10000)

	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(0), 0, at(8, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.Status != models.ProjectionUnknown {
		t.Errorf("Expected unknown status, got %v", proj.Status)
	}
	if proj.Confidence != "low" {
		t.Errorf("Expected low confidence, got %s", proj.Confidence)
	}
	if proj.VsHistorical != "Building history..." {
		t.Errorf("VsHistorical = %q", proj.VsHistorical)
	}
	if proj.Projected != 0 {
		t.Errorf("Projected = %d", proj.Projected)
	}
}

func TestCalculate_OnTrack(t *testing.T) {
	svc, _ := newTestService(t, 10000)

	// 6000 steps by noon is 500/h, projecting 12000.
	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(5), 6000, at(12, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.Status != models.ProjectionOnTrack {
		t.Errorf("Expected on track, got %v", proj.Status)
	}
	if proj.Rate != 500 || proj.Projected != 12000 {
		t.Errorf("Rate = %v, Projected = %d", proj.Rate, proj.Projected)
	}
	if want := at(20, 0); !proj.ReachAt.Equal(want) {
		t.Errorf("ReachAt = %v, want %v", proj.ReachAt, want)
	}
	if proj.Confidence != "medium" {
		t.Errorf("Expected medium confidence, got %s", proj.Confidence)
	}
	if proj.Remaining() != 4000 || proj.Percent() != 60 {
		t.Errorf("Remaining = %d, Percent = %v", proj.Remaining(), proj.Percent())
	}
}

func TestCalculate_Behind(t *testing.T) {
	svc, _ := newTestService(t, 10000)

	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(9), 1200, at(12, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.Status != models.ProjectionBehind {
		t.Errorf("Expected behind, got %v", proj.Status)
	}
	if !proj.ReachAt.IsZero() {
		t.Errorf("Expected no ReachAt, got %v", proj.ReachAt)
	}
	if proj.Confidence != "high" {
		t.Errorf("Expected high confidence, got %s", proj.Confidence)
	}
}

func TestCalculate_Reached(t *testing.T) {
	svc, _ := newTestService(t, 10000)

	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(10), 10500, at(18, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.Status != models.ProjectionReached {
		t.Errorf("Expected reached, got %v", proj.Status)
	}
	if proj.Remaining() != 0 || proj.Percent() != 100 {
		t.Errorf("Remaining = %d, Percent = %v", proj.Remaining(), proj.Percent())
	}
}

func TestCalculate_HistoryFallback(t *testing.T) {
	svc, l := newTestService(t, 10000)
	seedDay(t, l, testDay.AddDays(-1), 12000)
	seedDay(t, l, testDay.AddDays(-3), 12000)
	seedDay(t, l, testDay.AddDays(-7), 6000)

	// Nothing walked yet: the pace comes from the 10000/day average.
	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(0), 0, at(0, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.HistoricalAvg != 10000 {
		t.Errorf("HistoricalAvg = %v", proj.HistoricalAvg)
	}
	if proj.Projected != 10000 || proj.Status != models.ProjectionOnTrack {
		t.Errorf("Projected = %d, Status = %v", proj.Projected, proj.Status)
	}
	if proj.VsHistorical != "Typical for you" {
		t.Errorf("VsHistorical = %q", proj.VsHistorical)
	}
	if proj.VsLastWeek != "67% more than last week" {
		t.Errorf("VsLastWeek = %q", proj.VsLastWeek)
	}
}

func TestCalculate_PastDay(t *testing.T) {
	svc, _ := newTestService(t, 10000)

	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(4), 4800, at(30, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.Projected != 4800 || proj.Rate != 200 {
		t.Errorf("Projected = %d, Rate = %v", proj.Projected, proj.Rate)
	}
	if proj.Status != models.ProjectionBehind {
		t.Errorf("Expected behind, got %v", proj.Status)
	}
}

type failingTotals struct{}

func (failingTotals) DailyTotals(context.Context, models.Day, models.Day) ([]models.DailyTotal, error) {
	return nil, errors.New("database is locked")
}

func TestCalculate_HistoryErrorIsNotFatal(t *testing.T) {
	svc := New(failingTotals{}, 8000)
	proj, err := svc.Calculate(context.Background(), testDay, seriesWith(3), 4000, at(12, 0))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if proj.Status != models.ProjectionOnTrack {
		t.Errorf("Expected on track, got %v", proj.Status)
	}
	if proj.VsLastWeek != "No data for last week" {
		t.Errorf("VsLastWeek = %q", proj.VsLastWeek)
	}
}

func TestCache(t *testing.T) {
	svc := New(failingTotals{}, 8000)
	if svc.Cached(testDay) != nil {
		t.Fatal("Expected empty cache")
	}
	if _, err := svc.Calculate(context.Background(), testDay, seriesWith(1), 10, at(9, 0)); err != nil {
		t.Fatal(err)
	}
	if p := svc.Cached(testDay); p == nil || p.Current != 10 {
		t.Errorf("Cached = %+v", p)
	}
}

func TestFormatHistoricalComparison(t *testing.T) {
	tests := []struct {
		current, avg float64
		want         string
	}{
		{100, 0, "Building history..."},
		{105, 100, "Typical for you"},
		{130, 100, "Above your average"},
		{50, 100, "Below your average"},
	}
	for _, tt := range tests {
		if got := formatHistoricalComparison(tt.current, tt.avg); got != tt.want {
			t.Errorf("formatHistoricalComparison(%v, %v) = %q, want %q", tt.current, tt.avg, got, tt.want)
		}
	}
}

func TestProjectionStatusString(t *testing.T) {
	if models.ProjectionReached.String() != "Goal reached" || models.ProjectionUnknown.String() != "Not enough data" {
		t.Error("unexpected status labels")
	}
}
