// Package writer persists accountant output off the sensor goroutine.
//
// Hour commits are written in arrival order, so two commits for the same
// (day, hour) land in the order they were produced. State snapshots are
// coalesced: only the newest pending snapshot is written.
package writer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/models"
)

// HourStore persists closed hours.
type HourStore interface {
	CommitHour(ctx context.Context, rec models.HourlyStepRecord) error
}

// StateStore persists accountant state snapshots.
type StateStore interface {
	SaveAccountantState(ctx context.Context, s models.AccountantState) error
}

// Option configures a Writer.
type Option func(*Writer)

// WithBackOff sets the retry policy factory for hour commits.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(w *Writer) { w.newBackOff = f }
}

// WithStateRetry sets how long a failed state snapshot waits before the
// next attempt.
func WithStateRetry(d time.Duration) Option {
	return func(w *Writer) { w.stateRetry = d }
}

// Writer is the persistence goroutine.
type Writer struct {
	hours      HourStore
	states     StateStore
	newBackOff func() backoff.BackOff
	ctx        context.Context
	cancel     context.CancelFunc
	wake       chan struct{}
	flush      chan chan error
	errs       chan error
	stopped    chan struct{}
	pending    *models.AccountantState
	queue      []models.HourlyStepRecord
	stateRetry time.Duration
	mu         sync.Mutex
	closeOnce  sync.Once
}

// New starts a writer.
func New(hours HourStore, states StateStore, opts ...Option) *Writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		hours:      hours,
		states:     states,
		newBackOff: defaultBackOff,
		stateRetry: 5 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
		wake:       make(chan struct{}, 1),
		flush:      make(chan chan error),
		errs:       make(chan error, 16),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// CommitHour queues a closed hour. It never blocks.
func (w *Writer) CommitHour(rec models.HourlyStepRecord) {
	w.mu.Lock()
	w.queue = append(w.queue, rec)
	w.mu.Unlock()
	w.signal()
}

// SaveState queues a state snapshot, replacing any unwritten one. It never
// blocks.
func (w *Writer) SaveState(s models.AccountantState) {
	w.mu.Lock()
	w.pending = &s
	w.mu.Unlock()
	w.signal()
}

// Errors reports persistence failures. Errors are dropped when nobody reads.
func (w *Writer) Errors() <-chan error {
	return w.errs
}

// Flush blocks until everything queued before the call has been attempted.
// It returns the last failure seen while draining.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case w.flush <- reply:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the writer.
func (w *Writer) Close() error {
	var err error
	w.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = w.Flush(ctx)
		w.cancel()
		<-w.stopped
	})
	return err
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.stopped)

	var retry <-chan time.Time
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.wake:
		case <-retry:
		case reply := <-w.flush:
			reply <- w.drain()
			retry = w.retryTimer()
			continue
		}
		_ = w.drain()
		retry = w.retryTimer()
	}
}

// retryTimer schedules another pass while a state snapshot is still pending.
func (w *Writer) retryTimer() <-chan time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return nil
	}
	return time.After(w.stateRetry)
}

// drain writes queued hours in order, then the newest state snapshot.
func (w *Writer) drain() error {
	var lastErr error

	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.mu.Unlock()
			break
		}
		rec := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if err := w.commitHour(rec); err != nil {
			lastErr = err
		}
	}

	w.mu.Lock()
	state := w.pending
	w.pending = nil
	w.mu.Unlock()

	if state != nil {
		if err := w.states.SaveAccountantState(w.ctx, *state); err != nil {
			lastErr = fmt.Errorf("failed to save accountant state: %w", err)
			logger.Warn("State snapshot not persisted, will retry", "error", err)
			w.report(lastErr)

			w.mu.Lock()
			if w.pending == nil {
				w.pending = state
			}
			w.mu.Unlock()
		}
	}

	return lastErr
}

func (w *Writer) commitHour(rec models.HourlyStepRecord) error {
	op := func() error {
		return w.hours.CommitHour(w.ctx, rec)
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("Hour commit failed, retrying",
			"day", rec.Day, "hour", rec.Hour, "retry_in", next, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(w.newBackOff(), w.ctx), notify); err != nil {
		err = fmt.Errorf("failed to commit %s hour %d: %w", rec.Day, rec.Hour, err)
		logger.Error("Hour commit dropped", "day", rec.Day, "hour", rec.Hour, "steps", rec.Steps, "error", err)
		w.report(err)
		return err
	}
	return nil
}

func (w *Writer) report(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
