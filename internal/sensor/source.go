package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/pedometer"
)

// Select picks the preferred available kind: hardware counter, then
// hardware detector, then accelerometer.
func Select(c Capabilities) Kind {
	for _, k := range []Kind{KindCounter, KindDetector, KindAccelerometer} {
		if c.Has(k) {
			return k
		}
	}
	return KindNone
}

// Source delivers normalized step events from exactly one sensor kind.
type Source struct {
	backend   Backend
	readings  <-chan Reading
	algorithm *pedometer.Algorithm
	kind      Kind
	mu        sync.Mutex
}

// Open probes backend, selects a kind and starts delivery. It returns
// ErrUnavailable when the backend has nothing usable.
func Open(ctx context.Context, backend Backend) (*Source, error) {
	caps, err := backend.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to probe sensors: %w", err)
	}

	kind := Select(caps)
	if kind == KindNone {
		return nil, ErrUnavailable
	}

	readings, err := backend.Start(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", kind, err)
	}

	logger.Info("Sensor selected", "kind", kind.String(), "capabilities", caps)

	s := &Source{
		backend:  backend,
		readings: readings,
		kind:     kind,
	}
	if kind == KindAccelerometer {
		s.algorithm = pedometer.NewAlgorithm()
	}
	return s, nil
}

// Kind returns the selected sensor kind.
func (s *Source) Kind() Kind {
	return s.kind
}

// Next blocks until the next step event.
func (s *Source) Next(ctx context.Context) (pedometer.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return pedometer.Event{}, ctx.Err()
		case r, ok := <-s.readings:
			if !ok {
				return pedometer.Event{}, ErrClosed
			}
			if ev, ok := s.reconcile(r); ok {
				return ev, nil
			}
		}
	}
}

// ResetAlgorithm clears the software step detector, if one is in use.
func (s *Source) ResetAlgorithm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.algorithm != nil {
		s.algorithm.Reset()
	}
}

// Close stops the backend.
func (s *Source) Close() error {
	return s.backend.Close()
}

// reconcile maps a raw reading of the selected kind to an event. Readings of
// other kinds and detector values other than 1.0 are dropped.
func (s *Source) reconcile(r Reading) (pedometer.Event, bool) {
	if r.Kind != s.kind || len(r.Values) == 0 {
		return pedometer.Event{}, false
	}
	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}

	switch s.kind {
	case KindCounter:
		return pedometer.Absolute(r.Values[0], t), true
	case KindDetector:
		if r.Values[0] == 1.0 {
			return pedometer.Pulse(t), true
		}
	case KindAccelerometer:
		if len(r.Values) < 3 {
			return pedometer.Event{}, false
		}
		s.mu.Lock()
		step := s.algorithm.Process(r.Values[0], r.Values[1], r.Values[2], t)
		s.mu.Unlock()
		if step {
			return pedometer.Pulse(t), true
		}
	}
	return pedometer.Event{}, false
}
