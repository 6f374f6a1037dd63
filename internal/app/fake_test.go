package app

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services"
)

type fakeServices struct {
	mu sync.Mutex

	ch         chan services.ServiceEvent
	err        error
	projection *models.GoalProjection
	series     map[models.Day]models.HourlySeries
	status     services.StatusEvent
	total      int
	goal       int

	resets       int
	unsubscribed int
	deletedDays  []models.Day
	deletedHours []int
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		ch:     make(chan services.ServiceEvent, 8),
		series: make(map[models.Day]models.HourlySeries),
		goal:   10000,
	}
}

func (f *fakeServices) Subscribe() (chan services.ServiceEvent, tea.Cmd) { return f.ch, nil }
func (f *fakeServices) CurrentTotal() int                                   { return f.total }
func (f *fakeServices) Goal() int                                           { return f.goal }
func (f *fakeServices) Status() services.StatusEvent                        { return f.status }
func (f *fakeServices) Projection() *models.GoalProjection                  { return f.projection }

func (f *fakeServices) Unsubscribe(ch chan services.ServiceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed++
	close(ch)
}

func (f *fakeServices) HourlySeries(_ context.Context, day models.Day) (models.HourlySeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.series[day]; ok {
		return s, nil
	}
	return models.NewHourlySeries(day, nil), nil
}

func (f *fakeServices) RequestReset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeServices) DeleteDay(_ context.Context, day models.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletedDays = append(f.deletedDays, day)
	return nil
}

func (f *fakeServices) DeleteHour(_ context.Context, day models.Day, hour int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletedDays = append(f.deletedDays, day)
	f.deletedHours = append(f.deletedHours, hour)
	return nil
}
