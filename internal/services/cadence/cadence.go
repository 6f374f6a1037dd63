// Package cadence sends the periodic "your activity today" notification.
package cadence

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/stepmeter/internal/logger"
)

// Title is the notification title.
const Title = "Your activity today"

// Motivation thresholds, in steps.
const (
	startThreshold = 1000
	trackThreshold = 5000
	goalThreshold  = 10000
)

// TotalReader reads today's step total.
type TotalReader interface {
	CurrentTotal(ctx context.Context) (int, error)
}

// TotalReaderFunc adapts a function to TotalReader.
type TotalReaderFunc func(ctx context.Context) (int, error)

// CurrentTotal calls f.
func (f TotalReaderFunc) CurrentTotal(ctx context.Context) (int, error) {
	return f(ctx)
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(title, body string) error
}

// DesktopNotifier shows native desktop notifications.
type DesktopNotifier struct {
	Icon string
}

// Notify shows a desktop notification.
func (d DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, d.Icon)
}

// Message is a composed notification.
type Message struct {
	At    time.Time
	Title string
	Body  string
	Total int
}

// Motivation returns the encouragement line for a total.
func Motivation(total int) string {
	switch {
	case total < startThreshold:
		return "Good start! Keep it up!"
	case total < trackThreshold:
		return "Great! You're on the right track!"
	case total < goalThreshold:
		return "Amazing! You've almost reached your goal!"
	default:
		return "Fantastic! You've exceeded expectations!"
	}
}

// Compose builds the notification for a total.
func Compose(total int, at time.Time) Message {
	return Message{
		At:    at,
		Title: Title,
		Body:  fmt.Sprintf("You walked %d steps. %s", total, Motivation(total)),
		Total: total,
	}
}

// Option configures a Cadence.
type Option func(*Cadence)

// WithBackOff sets the retry policy factory.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Cadence) { c.newBackOff = f }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cadence) { c.now = now }
}

// Cadence reads the total and sends one notification per run.
type Cadence struct {
	reader     TotalReader
	notifier   Notifier
	newBackOff func() backoff.BackOff
	now        func() time.Time
}

// New creates a Cadence.
func New(reader TotalReader, notifier Notifier, opts ...Option) *Cadence {
	c := &Cadence{
		reader:     reader,
		notifier:   notifier,
		newBackOff: defaultBackOff,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// Run reads the current total and sends the notification. A failed read or
// delivery retries the whole run with exponential backoff.
func (c *Cadence) Run(ctx context.Context) (Message, error) {
	var msg Message
	op := func() error {
		total, err := c.reader.CurrentTotal(ctx)
		if err != nil {
			return fmt.Errorf("failed to read total: %w", err)
		}
		msg = Compose(total, c.now())
		if err := c.notifier.Notify(msg.Title, msg.Body); err != nil {
			return fmt.Errorf("failed to notify: %w", err)
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("Notification run failed, retrying", "retry_in", next, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return Message{}, err
	}
	logger.Info("Activity notification sent", "steps", msg.Total)
	return msg, nil
}
