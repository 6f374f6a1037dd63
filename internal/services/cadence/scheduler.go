package cadence

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a task after an initial delay and then periodically until
// stopped. Runs never overlap.
type Scheduler struct {
	task         func(ctx context.Context)
	cancel       context.CancelFunc
	done         chan struct{}
	initialDelay time.Duration
	interval     time.Duration
	mu           sync.Mutex
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(initialDelay, interval time.Duration, task func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		task:         task,
		initialDelay: initialDelay,
		interval:     interval,
	}
}

// Start begins scheduling. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancels scheduling and waits for a running task to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.task(ctx)
			timer.Reset(s.interval)
		}
	}
}
