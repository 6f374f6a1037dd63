// Package ledger exposes the hourly step history: last-write-wins hour
// commits, gap-filled daily series, totals, deletes, and a live stream of a
// day's series that only emits on change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/models"
)

// ErrInvalidHour is returned for hours outside 0-23.
var ErrInvalidHour = errors.New("hour must be between 0 and 23")

// Store is the persistence the ledger runs on. *db.DB implements it.
type Store interface {
	UpsertHour(ctx context.Context, rec models.HourlyStepRecord) error
	GetHourlyRecords(ctx context.Context, day models.Day) ([]models.HourlyStepRecord, error)
	GetDailyTotal(ctx context.Context, day models.Day) (int, error)
	GetDailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error)
	ListDays(ctx context.Context, limit int) ([]models.Day, error)
	DeleteDay(ctx context.Context, day models.Day) (int64, error)
	DeleteHour(ctx context.Context, day models.Day, hour int) (int64, error)
	PurgeOlderThan(ctx context.Context, day models.Day) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Vacuum(ctx context.Context) error
}

type watcher struct {
	ch   chan models.HourlySeries
	day  models.Day
	last models.HourlySeries
}

// Service is the ledger. It is safe for concurrent use.
type Service struct {
	store    Store
	watchers map[*watcher]struct{}
	mu       sync.Mutex
}

// New creates a ledger over store.
func New(store Store) *Service {
	return &Service{
		store:    store,
		watchers: make(map[*watcher]struct{}),
	}
}

// CommitHour upserts the delta for (day, hour), replacing any previous value.
func (s *Service) CommitHour(ctx context.Context, rec models.HourlyStepRecord) error {
	if rec.Hour < 0 || rec.Hour >= models.HoursPerDay {
		return ErrInvalidHour
	}
	if err := s.store.UpsertHour(ctx, rec); err != nil {
		return err
	}
	s.notify(ctx, rec.Day)
	return nil
}

// HourlySeries returns all 24 hours of day. Hours without a record, and days
// with no data at all, read as zero.
func (s *Service) HourlySeries(ctx context.Context, day models.Day) (models.HourlySeries, error) {
	records, err := s.store.GetHourlyRecords(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load series for %s: %w", day, err)
	}
	return models.NewHourlySeries(day, records), nil
}

// DailyTotal returns the committed step total of day, 0 when none.
func (s *Service) DailyTotal(ctx context.Context, day models.Day) (int, error) {
	return s.store.GetDailyTotal(ctx, day)
}

// DailyTotals returns one entry per day in [from, to], zero filled.
func (s *Service) DailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error) {
	if _, err := models.ParseDay(string(from)); err != nil {
		return nil, err
	}
	if _, err := models.ParseDay(string(to)); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, nil
	}
	stored, err := s.store.GetDailyTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[models.Day]int, len(stored))
	for _, dt := range stored {
		byDay[dt.Day] = dt.Steps
	}

	var out []models.DailyTotal
	for d := from; !to.Before(d); d = d.AddDays(1) {
		out = append(out, models.DailyTotal{Day: d, Steps: byDay[d]})
	}
	return out, nil
}

// Days returns up to limit days that have history, newest first.
func (s *Service) Days(ctx context.Context, limit int) ([]models.Day, error) {
	return s.store.ListDays(ctx, limit)
}

// DeleteDay removes every hour of day.
func (s *Service) DeleteDay(ctx context.Context, day models.Day) error {
	n, err := s.store.DeleteDay(ctx, day)
	if err != nil {
		return err
	}
	logger.Info("Deleted day", "day", day, "rows", n)
	s.notify(ctx, day)
	return nil
}

// DeleteHour removes one hour of day.
func (s *Service) DeleteHour(ctx context.Context, day models.Day, hour int) error {
	if hour < 0 || hour >= models.HoursPerDay {
		return ErrInvalidHour
	}
	n, err := s.store.DeleteHour(ctx, day, hour)
	if err != nil {
		return err
	}
	logger.Info("Deleted hour", "day", day, "hour", hour, "rows", n)
	s.notify(ctx, day)
	return nil
}

// PurgeOlderThan removes all days strictly before day and returns the number
// of hourly rows removed.
func (s *Service) PurgeOlderThan(ctx context.Context, day models.Day) (int64, error) {
	n, err := s.store.PurgeOlderThan(ctx, day)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("Purged old step history", "before", day, "rows", n)
		if err := s.store.Vacuum(ctx); err != nil {
			logger.Warn("Failed to vacuum after purge", "error", err)
		}
		s.notifyAll(ctx)
	}
	return n, nil
}

// DeleteAll removes all history.
func (s *Service) DeleteAll(ctx context.Context) error {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return err
	}
	logger.Info("Deleted all step history", "rows", n)
	s.notifyAll(ctx)
	return nil
}

// Watch streams the hourly series of day. The current series is sent first;
// afterwards a value is sent only when a write changes it. A slow reader
// only ever sees the latest series. The channel closes when ctx is done.
func (s *Service) Watch(ctx context.Context, day models.Day) (<-chan models.HourlySeries, error) {
	// The first read and the registration share the lock so a write that
	// lands in between still reaches this watcher through notify.
	s.mu.Lock()
	series, err := s.HourlySeries(ctx, day)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	w := &watcher{
		day:  day,
		ch:   make(chan models.HourlySeries, 1),
		last: series,
	}
	w.ch <- series
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, w)
		close(w.ch)
		s.mu.Unlock()
	}()

	return w.ch, nil
}

func (s *Service) notify(ctx context.Context, day models.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx, func(w *watcher) bool { return w.day == day })
}

func (s *Service) notifyAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx, func(*watcher) bool { return true })
}

// refresh recomputes the series of every matching watcher, one query per
// day. Callers hold s.mu.
func (s *Service) refresh(ctx context.Context, match func(*watcher) bool) {
	cache := make(map[models.Day]models.HourlySeries)
	for w := range s.watchers {
		if !match(w) {
			continue
		}
		series, ok := cache[w.day]
		if !ok {
			var err error
			series, err = s.HourlySeries(ctx, w.day)
			if err != nil {
				logger.Warn("Failed to refresh watched series", "day", w.day, "error", err)
				continue
			}
			cache[w.day] = series
		}
		if series.Equal(w.last) {
			continue
		}
		w.last = series
		offer(w.ch, series)
	}
}

// offer replaces any unread value with v. Only refresh sends, under s.mu, so
// the second send cannot block.
func offer(ch chan models.HourlySeries, v models.HourlySeries) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
