package publisher

import "sync"

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// PublishError, if set, is returned by PublishSteps.
	PublishError error

	// Steps contains every steps update that was published.
	Steps []StepsUpdate

	// Statuses contains every status that was published.
	Statuses []Status

	// Closed tracks if Close was called.
	Closed bool

	mu sync.Mutex
}

// NewFakePublisher creates a FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishSteps records the update.
func (f *FakePublisher) PublishSteps(u StepsUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Steps = append(f.Steps, u)
	return nil
}

// PublishStatus records the status.
func (f *FakePublisher) PublishStatus(s Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = append(f.Statuses, s)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Snapshot returns copies of the recorded messages.
func (f *FakePublisher) Snapshot() ([]StepsUpdate, []Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StepsUpdate(nil), f.Steps...), append([]Status(nil), f.Statuses...)
}
