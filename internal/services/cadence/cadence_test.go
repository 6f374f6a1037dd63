package cadence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type recordingNotifier struct {
	err    error
	titles []string
	bodies []string
}

func (r *recordingNotifier) Notify(title, body string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
	return nil
}

func noDelay() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
}

func TestMotivation(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{0, "Good start! Keep it up!"},
		{999, "Good start! Keep it up!"},
		{1000, "Great! You're on the right track!"},
		{4999, "Great! You're on the right track!"},
		{5000, "Amazing! You've almost reached your goal!"},
		{9999, "Amazing! You've almost reached your goal!"},
		{10000, "Fantastic! You've exceeded expectations!"},
		{25000, "Fantastic! You've exceeded expectations!"},
	}
	for _, tt := range tests {
		if got := Motivation(tt.total); got != tt.want {
			t.Errorf("Motivation(%d) = %q, want %q", tt.total, got, tt.want)
		}
	}
}

func TestCompose(t *testing.T) {
	at := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
	msg := Compose(4321, at)
	if msg.Title != "Your activity today" {
		t.Errorf("Title = %q", msg.Title)
	}
	want := "You walked 4321 steps. Great! You're on the right track!"
	if msg.Body != want {
		t.Errorf("Body = %q, want %q", msg.Body, want)
	}
	if msg.Total != 4321 || !msg.At.Equal(at) {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestRun(t *testing.T) {
	notifier := &recordingNotifier{}
	c := New(TotalReaderFunc(func(context.Context) (int, error) { return 12000, nil }), notifier,
		WithBackOff(noDelay))

	msg, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if msg.Total != 12000 || len(notifier.bodies) != 1 {
		t.Fatalf("unexpected result %+v, %v", msg, notifier.bodies)
	}
	if notifier.bodies[0] != "You walked 12000 steps. Fantastic! You've exceeded expectations!" {
		t.Errorf("Body = %q", notifier.bodies[0])
	}
}

func TestRun_RetriesRead(t *testing.T) {
	var calls int32
	reader := TotalReaderFunc(func(context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return 0, errors.New("busy")
		}
		return 10, nil
	})
	notifier := &recordingNotifier{}

	msg, err := New(reader, notifier, WithBackOff(noDelay)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 3 || msg.Total != 10 {
		t.Errorf("calls = %d, total = %d", calls, msg.Total)
	}
}

func TestRun_GivesUp(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("no notification daemon")}
	c := New(TotalReaderFunc(func(context.Context) (int, error) { return 1, nil }), notifier,
		WithBackOff(noDelay))
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("expected error after retries")
	}
}

func TestScheduler(t *testing.T) {
	var runs int32
	s := NewScheduler(5*time.Millisecond, 5*time.Millisecond, func(context.Context) {
		atomic.AddInt32(&runs, 1)
	})
	s.Start(context.Background())
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&runs) < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	s.Stop()

	got := atomic.LoadInt32(&runs)
	if got < 3 {
		t.Fatalf("expected at least 3 runs, got %d", got)
	}
	time.Sleep(20 * time.Millisecond)
	if after := atomic.LoadInt32(&runs); after != got {
		t.Errorf("task ran after Stop: %d -> %d", got, after)
	}
}

func TestScheduler_InitialDelay(t *testing.T) {
	var runs int32
	s := NewScheduler(time.Hour, time.Hour, func(context.Context) {
		atomic.AddInt32(&runs, 1)
	})
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	if atomic.LoadInt32(&runs) != 0 {
		t.Error("task ran before the initial delay")
	}
}
