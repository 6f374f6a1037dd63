// Package projection estimates end-of-day totals against the daily goal.
package projection

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/models"
)

const (
	historyDays      = 28
	lowConfThreshold = 3
	medConfThreshold = 8
	// minElapsed keeps the early-morning pace from exploding.
	minElapsed = 15 * time.Minute
)

// TotalsReader reads zero-filled daily totals for an inclusive range.
type TotalsReader interface {
	DailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error)
}

type Service struct {
	mu     sync.RWMutex
	totals TotalsReader
	goal   int

	projectionCache map[models.Day]*models.GoalProjection
}

func New(totals TotalsReader, goal int) *Service {
	return &Service{
		totals:          totals,
		goal:            goal,
		projectionCache: make(map[models.Day]*models.GoalProjection),
	}
}

// Goal returns the configured daily goal.
func (s *Service) Goal() int {
	return s.goal
}

// Calculate projects the end-of-day total for day from its hourly series as
// observed at now. The open hour's steps are not in series, so current is
// passed separately.
func (s *Service) Calculate(
	ctx context.Context,
	day models.Day,
	series models.HourlySeries,
	current int,
	now time.Time,
) (*models.GoalProjection, error) {
	proj := &models.GoalProjection{
		Day:         day,
		Goal:        s.goal,
		Current:     current,
		ActiveHours: series.ActiveHours(),
		LastUpdated: now,
		Status:      models.ProjectionUnknown,
	}

	history, err := s.totals.DailyTotals(ctx, day.AddDays(-historyDays), day.AddDays(-1))
	if err != nil {
		logger.Error("failed to get daily totals", "day", day, "error", err)
		history = nil
	}
	proj.HistoricalAvg = activeAverage(history)

	proj.Confidence = confidence(proj.ActiveHours)

	elapsed, remaining := dayProgress(day, now)
	if elapsed > 0 {
		proj.Rate = float64(current) / elapsed.Hours()
	}

	effectiveRate := proj.Rate
	if effectiveRate <= 0 && proj.HistoricalAvg > 0 {
		effectiveRate = proj.HistoricalAvg / models.HoursPerDay
	}

	proj.Projected = current + int(math.Round(effectiveRate*remaining.Hours()))

	switch {
	case s.goal > 0 && current >= s.goal:
		proj.Status = models.ProjectionReached
	case effectiveRate <= 0:
		proj.Status = models.ProjectionUnknown
	case proj.Projected >= s.goal:
		proj.Status = models.ProjectionOnTrack
		needed := float64(s.goal-current) / effectiveRate
		proj.ReachAt = now.Add(time.Duration(needed * float64(time.Hour)))
	default:
		proj.Status = models.ProjectionBehind
	}

	proj.VsHistorical = formatHistoricalComparison(float64(proj.Projected), proj.HistoricalAvg)
	if len(history) >= 7 {
		proj.VsLastWeek = formatComparison(float64(proj.Projected), float64(history[len(history)-7].Steps))
	} else {
		proj.VsLastWeek = formatComparison(float64(proj.Projected), 0)
	}

	s.mu.Lock()
	s.projectionCache[day] = proj
	s.mu.Unlock()

	return proj, nil
}

// Cached returns the last projection calculated for day.
func (s *Service) Cached(day models.Day) *models.GoalProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectionCache[day]
}

// dayProgress splits the day at now. Past days are fully elapsed.
func dayProgress(day models.Day, now time.Time) (elapsed, remaining time.Duration) {
	start := day.Start()
	end := day.AddDays(1).Start()
	switch {
	case !now.After(start):
		return 0, end.Sub(start)
	case !now.Before(end):
		return end.Sub(start), 0
	}
	elapsed = now.Sub(start)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	return elapsed, end.Sub(now)
}

func confidence(activeHours int) string {
	if activeHours < lowConfThreshold {
		return "low"
	} else if activeHours < medConfThreshold {
		return "medium"
	}
	return "high"
}

// activeAverage is the mean over days with any steps.
func activeAverage(totals []models.DailyTotal) float64 {
	sum, n := 0, 0
	for _, t := range totals {
		if t.Steps > 0 {
			sum += t.Steps
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func formatComparison(current, reference float64) string {
	if reference <= 0 {
		return "No data for last week"
	}
	diff := ((current - reference) / reference) * 100
	if math.Abs(diff) < 10 {
		return "Similar to last week"
	} else if diff > 0 {
		return fmt.Sprintf("%.0f%% more than last week", diff)
	}
	return fmt.Sprintf("%.0f%% less than last week", -diff)
}

func formatHistoricalComparison(current, average float64) string {
	if average <= 0 {
		return "Building history..."
	}
	diff := ((current - average) / average) * 100
	if math.Abs(diff) < 15 {
		return "Typical for you"
	} else if diff > 0 {
		return "Above your average"
	}
	return "Below your average"
}
