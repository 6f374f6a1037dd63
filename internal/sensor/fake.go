package sensor

import (
	"context"
	"errors"
	"sync"
)

// FakeBackend is a test double with scripted capabilities. Readings are
// pushed with Emit after Start.
type FakeBackend struct {
	ch chan Reading

	// Caps is returned by Probe.
	Caps Capabilities

	// ProbeError, if set, is returned by Probe.
	ProbeError error

	// StartError, if set, is returned by Start.
	StartError error

	// Started records the kind passed to Start.
	Started Kind

	// Closed tracks if Close was called.
	Closed bool

	mu sync.Mutex
}

// NewFakeBackend creates a FakeBackend advertising caps.
func NewFakeBackend(caps Capabilities) *FakeBackend {
	return &FakeBackend{Caps: caps}
}

// Probe returns the scripted capabilities.
func (f *FakeBackend) Probe(context.Context) (Capabilities, error) {
	if f.ProbeError != nil {
		return Capabilities{}, f.ProbeError
	}
	return f.Caps, nil
}

// Start records kind and returns the reading channel.
func (f *FakeBackend) Start(_ context.Context, kind Kind) (<-chan Reading, error) {
	if f.StartError != nil {
		return nil, f.StartError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Started = kind
	f.ch = make(chan Reading, 64)
	return f.ch, nil
}

// Emit delivers a reading. It fails if the backend is not started or closed.
func (f *FakeBackend) Emit(r Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch == nil || f.Closed {
		return errors.New("fake backend not running")
	}
	f.ch <- r
	return nil
}

// Close closes the reading channel.
func (f *FakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Closed && f.ch != nil {
		close(f.ch)
	}
	f.Closed = true
	return nil
}
