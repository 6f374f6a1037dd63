// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/accountant"
	"github.com/j-veylop/stepmeter/internal/config"
	"github.com/j-veylop/stepmeter/internal/db"
	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/pedometer"
	"github.com/j-veylop/stepmeter/internal/sensor"
	"github.com/j-veylop/stepmeter/internal/services/cadence"
	"github.com/j-veylop/stepmeter/internal/services/ledger"
	"github.com/j-veylop/stepmeter/internal/services/projection"
	"github.com/j-veylop/stepmeter/internal/services/publisher"
	"github.com/j-veylop/stepmeter/internal/services/writer"
)

type (
	// StepsUpdatedEvent is emitted when today's total changes.
	StepsUpdatedEvent struct {
		Day           models.Day
		Total         int
		OpenHourSteps int
	}

	// HourlySeriesEvent is emitted when the ledger series of the tracked day
	// changes.
	HourlySeriesEvent struct {
		Day    models.Day
		Series models.HourlySeries
	}

	// StatusEvent describes whether steps are being counted.
	StatusEvent struct {
		Reason  string
		Source  sensor.Kind
		Running bool
	}

	// ProjectionUpdatedEvent is emitted when the goal projection is recalculated.
	ProjectionUpdatedEvent struct {
		Projection *models.GoalProjection
	}

	// NotificationEvent is emitted after an activity notification was sent.
	NotificationEvent struct {
		At    time.Time
		Title string
		Body  string
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (StepsUpdatedEvent) isServiceEvent()      {}
func (HourlySeriesEvent) isServiceEvent()      {}
func (StatusEvent) isServiceEvent()            {}
func (ProjectionUpdatedEvent) isServiceEvent() {}
func (NotificationEvent) isServiceEvent()      {}
func (ErrorEvent) isServiceEvent()             {}

// Option configures a Manager.
type Option func(*Manager)

// WithBackend replaces the configured sensor backend.
func WithBackend(b sensor.Backend) Option {
	return func(m *Manager) { m.backend = b }
}

// WithNotifier replaces the desktop notifier.
func WithNotifier(n cadence.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithPublisher replaces the MQTT publisher.
func WithPublisher(p publisher.Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager orchestrates services and event routing. A single loop goroutine
// owns the accountant; everything else reads through the query methods.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	ledger      *ledger.Service
	writer      *writer.Writer
	accountant  *accountant.Accountant
	projection  *projection.Service
	cadence     *cadence.Cadence
	scheduler   *cadence.Scheduler
	publisher   publisher.Publisher
	notifier    cadence.Notifier
	backend     sensor.Backend
	source      *sensor.Source
	now         func() time.Time
	cancel      context.CancelFunc
	resetChan   chan struct{}
	subscribers []chan<- ServiceEvent
	status      StatusEvent
	wg          sync.WaitGroup
	started     bool
	closeOnce   sync.Once

	// Owned by the loop goroutine.
	series     <-chan models.HourlySeries
	stopWatch  context.CancelFunc
	watchedDay models.Day
	lastSeries models.HourlySeries
}

// NewManager creates a new service manager. It opens the database and
// restores the accountant; sensors are opened by Start.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		now:       time.Now,
		resetChan: make(chan struct{}, 1),
		status:    StatusEvent{Reason: "Not started"},
	}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	state, ok, err := m.database.LoadAccountantState(context.Background())
	if err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to load accountant state: %w", err)
	}
	if !ok {
		state = models.NewAccountantState(m.now())
	}

	m.ledger = ledger.New(m.database)
	m.writer = writer.New(m.ledger, m.database)
	m.accountant = accountant.New(state, m.writer, m.writer, m.now())
	m.projection = projection.New(m.ledger, cfg.DailyGoal)

	if m.notifier == nil {
		m.notifier = cadence.DesktopNotifier{}
	}
	m.cadence = cadence.New(cadence.TotalReaderFunc(func(context.Context) (int, error) {
		return m.CurrentTotal(), nil
	}), m.notifier, cadence.WithClock(m.now))
	m.scheduler = cadence.NewScheduler(cfg.NotifyInitialDelay, cfg.NotifyInterval, m.notify)

	if m.publisher == nil && cfg.MQTTPublish {
		pub, err := publisher.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTTopicPrefix, cfg.MQTTClientID+"-pub")
		if err != nil {
			logger.Warn("MQTT publishing disabled", "broker", cfg.MQTTBroker, "error", err)
		} else {
			m.publisher = pub
		}
	}

	return m, nil
}

// newBackend builds the configured sensor backend.
func newBackend(cfg *config.Config) (sensor.Backend, error) {
	switch cfg.SensorBackend {
	case config.BackendIIO:
		return sensor.NewIIOBackend(cfg.IIORoot, cfg.SensorPollInterval), nil
	case config.BackendFile:
		caps, err := cfg.FileCapabilities()
		if err != nil {
			return nil, err
		}
		return sensor.NewFileBackend(cfg.SensorFilePath, caps), nil
	case config.BackendMQTT:
		return sensor.NewMQTTBackend(cfg.MQTTBroker, cfg.MQTTTopicPrefix, cfg.MQTTClientID)
	default:
		return nil, sensor.ErrUnavailable
	}
}

// Start opens the sensor source and starts the event loop, retention purge
// and notification schedule. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.purgeRetention(ctx)

	// Close a day that ended while the process was down.
	m.handleUpdate(ctx, m.accountant.Tick(m.now()))
	if m.series == nil {
		m.watchDay(ctx, m.accountant.State().TrackedDay)
	}

	events := m.openSource(ctx)

	m.wg.Add(1)
	go m.loop(ctx, events)

	if m.cfg.NotifyEnabled {
		m.scheduler.Start(ctx)
	}
	return nil
}

// openSource resolves the backend and starts the pump. It returns nil when
// no sensor is usable; the status event carries the reason.
func (m *Manager) openSource(ctx context.Context) <-chan pedometer.Event {
	backend := m.backend
	if backend == nil {
		var err error
		backend, err = newBackend(m.cfg)
		if err != nil {
			m.setStatus(StatusEvent{Running: false, Reason: unavailableReason(err)})
			return nil
		}
	}

	src, err := sensor.Open(ctx, backend)
	if err != nil {
		_ = backend.Close()
		m.setStatus(StatusEvent{Running: false, Reason: unavailableReason(err)})
		if !errors.Is(err, sensor.ErrUnavailable) {
			m.broadcast(ErrorEvent{Service: "sensor", Error: err})
		}
		return nil
	}

	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
	m.setStatus(StatusEvent{Running: true, Source: src.Kind()})

	events := make(chan pedometer.Event, 64)
	m.wg.Add(1)
	go m.pump(ctx, src, events)
	return events
}

func unavailableReason(err error) string {
	if errors.Is(err, sensor.ErrUnavailable) {
		return "No step sensor available"
	}
	return err.Error()
}

// pump forwards source events to the loop.
func (m *Manager) pump(ctx context.Context, src *sensor.Source, out chan<- pedometer.Event) {
	defer m.wg.Done()
	defer close(out)

	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, sensor.ErrClosed) {
				logger.Warn("Sensor stream ended", "kind", src.Kind().String())
				m.setStatus(StatusEvent{Running: false, Source: src.Kind(), Reason: "Sensor stream ended"})
			}
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// loop is the only goroutine that mutates the accountant after Start.
func (m *Manager) loop(ctx context.Context, events <-chan pedometer.Event) {
	defer m.wg.Done()
	defer func() {
		if m.stopWatch != nil {
			m.stopWatch()
		}
	}()

	ticker := time.NewTicker(m.cfg.RolloverCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.handleUpdate(ctx, m.accountant.HandleEvent(ev, m.now()))

		case <-m.resetChan:
			m.mu.RLock()
			src := m.source
			m.mu.RUnlock()
			if src != nil {
				src.ResetAlgorithm()
			}
			m.handleUpdate(ctx, m.accountant.Reset(m.now()))
			m.updateProjection(ctx)

		case <-ticker.C:
			m.handleUpdate(ctx, m.accountant.Tick(m.now()))
			m.updateProjection(ctx)

		case err := <-m.writer.Errors():
			m.broadcast(ErrorEvent{Service: "writer", Error: err})

		case s, ok := <-m.series:
			if !ok {
				m.series = nil
				continue
			}
			m.lastSeries = s
			m.broadcast(HourlySeriesEvent{Day: m.watchedDay, Series: s})
			m.updateProjection(ctx)
		}
	}
}

// handleUpdate fans an accountant update out to subscribers and the
// publisher.
func (m *Manager) handleUpdate(ctx context.Context, u accountant.Update) {
	if u.RolledOver {
		m.watchDay(ctx, u.Day)
		m.purgeRetention(ctx)
	}
	if !u.Changed {
		return
	}

	m.broadcast(StepsUpdatedEvent{Day: u.Day, Total: u.Total, OpenHourSteps: u.OpenHour})

	if m.publisher != nil {
		err := m.publisher.PublishSteps(publisher.StepsUpdate{
			Timestamp: m.now(),
			Day:       u.Day,
			Total:     u.Total,
		})
		if err != nil {
			logger.Warn("Failed to publish steps", "error", err)
		}
	}
}

// watchDay moves the ledger watch to day.
func (m *Manager) watchDay(ctx context.Context, day models.Day) {
	if m.stopWatch != nil {
		m.stopWatch()
	}
	m.series, m.stopWatch = nil, nil
	m.watchedDay = day
	m.lastSeries = models.NewHourlySeries(day, nil)

	watchCtx, cancel := context.WithCancel(ctx)
	ch, err := m.ledger.Watch(watchCtx, day)
	if err != nil {
		cancel()
		logger.Error("failed to watch hourly series", "day", day, "error", err)
		m.broadcast(ErrorEvent{Service: "ledger", Error: err})
		return
	}
	m.series, m.stopWatch = ch, cancel
}

func (m *Manager) updateProjection(ctx context.Context) {
	state := m.accountant.State()
	if state.TrackedDay != m.watchedDay {
		return
	}
	proj, err := m.projection.Calculate(ctx, state.TrackedDay, m.lastSeries, state.TotalSteps, m.now())
	if err != nil {
		logger.Error("failed to calculate projection", "error", err)
		return
	}
	m.broadcast(ProjectionUpdatedEvent{Projection: proj})
}

func (m *Manager) purgeRetention(ctx context.Context) {
	if m.cfg.RetentionDays <= 0 {
		return
	}
	cutoff := models.DayOf(m.now()).AddDays(-m.cfg.RetentionDays)
	if _, err := m.ledger.PurgeOlderThan(ctx, cutoff); err != nil {
		logger.Error("failed to purge old records", "before", cutoff, "error", err)
		m.broadcast(ErrorEvent{Service: "ledger", Error: err})
	}
}

// notify is the cadence task.
func (m *Manager) notify(ctx context.Context) {
	msg, err := m.cadence.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.broadcast(ErrorEvent{Service: "cadence", Error: err})
		}
		return
	}
	m.broadcast(NotificationEvent{At: msg.At, Title: msg.Title, Body: msg.Body})
}

func (m *Manager) setStatus(s StatusEvent) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()

	m.broadcast(s)

	if m.publisher != nil {
		status := publisher.Status{Running: s.Running}
		if s.Source != sensor.KindNone {
			status.Source = s.Source.String()
		}
		if err := m.publisher.PublishStatus(status); err != nil {
			logger.Warn("Failed to publish status", "error", err)
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// RequestReset asks the loop to zero today's total. Requests made while one
// is pending are merged.
func (m *Manager) RequestReset() {
	select {
	case m.resetChan <- struct{}{}:
	default:
	}
}

// CurrentTotal returns today's step total. It is zero when the tracked day
// has ended but the rollover has not been processed yet.
func (m *Manager) CurrentTotal() int {
	state := m.accountant.State()
	if state.TrackedDay != models.DayOf(m.now()) {
		return 0
	}
	return state.TotalSteps
}

// Status returns the latest counting status.
func (m *Manager) Status() StatusEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Goal returns the configured daily goal.
func (m *Manager) Goal() int {
	return m.cfg.DailyGoal
}

// Projection returns the last goal projection for today, if any.
func (m *Manager) Projection() *models.GoalProjection {
	return m.projection.Cached(m.accountant.State().TrackedDay)
}

// HourlySeries returns the committed series of day.
func (m *Manager) HourlySeries(ctx context.Context, day models.Day) (models.HourlySeries, error) {
	return m.ledger.HourlySeries(ctx, day)
}

// DailyTotal returns the committed total of day.
func (m *Manager) DailyTotal(ctx context.Context, day models.Day) (int, error) {
	return m.ledger.DailyTotal(ctx, day)
}

// DailyTotals returns zero-filled committed totals for an inclusive range.
func (m *Manager) DailyTotals(ctx context.Context, from, to models.Day) ([]models.DailyTotal, error) {
	return m.ledger.DailyTotals(ctx, from, to)
}

// Days lists the most recent days with records.
func (m *Manager) Days(ctx context.Context, limit int) ([]models.Day, error) {
	return m.ledger.Days(ctx, limit)
}

// DeleteDay removes a day's records. The live total is not affected.
func (m *Manager) DeleteDay(ctx context.Context, day models.Day) error {
	return m.ledger.DeleteDay(ctx, day)
}

// DeleteHour removes one hour's record.
func (m *Manager) DeleteHour(ctx context.Context, day models.Day, hour int) error {
	return m.ledger.DeleteHour(ctx, day, hour)
}

// DeleteAll removes every hourly record.
func (m *Manager) DeleteAll(ctx context.Context) error {
	return m.ledger.DeleteAll(ctx)
}

// Flush waits until queued ledger and state writes have been attempted.
func (m *Manager) Flush(ctx context.Context) error {
	return m.writer.Flush(ctx)
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		m.scheduler.Stop()

		m.mu.Lock()
		cancel, src := m.cancel, m.source
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		m.wg.Wait()

		if src != nil {
			if err := src.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if err := m.writer.Close(); err != nil {
			errs = append(errs, err)
		}

		if m.publisher != nil {
			_ = m.publisher.PublishStatus(publisher.Status{Running: false})
			if err := m.publisher.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
