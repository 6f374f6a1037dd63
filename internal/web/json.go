package web

import (
	"time"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services"
)

// StatusJSON is the /api/v1/status response.
type StatusJSON struct {
	Source  string `json:"source,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Running bool   `json:"running"`
}

// HourJSON is one hour of a series.
type HourJSON struct {
	Hour  int `json:"hour"`
	Steps int `json:"steps"`
}

// ProjectionJSON summarizes the goal projection.
type ProjectionJSON struct {
	ReachAt    string  `json:"reach_at,omitempty"`
	Status     string  `json:"status"`
	Confidence string  `json:"confidence"`
	Rate       float64 `json:"rate_per_hour"`
	Projected  int     `json:"projected"`
}

// TodayJSON is the /api/v1/steps/today response.
type TodayJSON struct {
	Projection *ProjectionJSON `json:"projection,omitempty"`
	Day        string          `json:"day"`
	Hourly     []HourJSON      `json:"hourly"`
	Total      int             `json:"total"`
	Goal       int             `json:"goal"`
}

// DayJSON is the /api/v1/steps/{day}/hourly response.
type DayJSON struct {
	Day    string     `json:"day"`
	Hourly []HourJSON `json:"hourly"`
	Total  int        `json:"total"`
}

// DailyJSON is one day of a range.
type DailyJSON struct {
	Day   string `json:"day"`
	Steps int    `json:"steps"`
}

// RangeJSON is the /api/v1/steps response.
type RangeJSON struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Days []DailyJSON `json:"days"`
}

// ErrorJSON is the body of every error response.
type ErrorJSON struct {
	Error string `json:"error"`
}

func newStatusJSON(s services.StatusEvent) StatusJSON {
	out := StatusJSON{Running: s.Running, Reason: s.Reason}
	if s.Running {
		out.Source = s.Source.String()
	}
	return out
}

func newHourlyJSON(series models.HourlySeries) []HourJSON {
	out := make([]HourJSON, 0, len(series))
	for _, h := range series {
		out = append(out, HourJSON{Hour: h.Hour, Steps: h.Steps})
	}
	return out
}

func newProjectionJSON(p *models.GoalProjection) *ProjectionJSON {
	if p == nil {
		return nil
	}
	out := &ProjectionJSON{
		Status:     p.Status.String(),
		Confidence: p.Confidence,
		Rate:       p.Rate,
		Projected:  p.Projected,
	}
	if !p.ReachAt.IsZero() {
		out.ReachAt = p.ReachAt.Format(time.RFC3339)
	}
	return out
}
