// Package pedometer contains the pure step-detection logic: the sensor event
// variant consumed by the accountant and the accelerometer step algorithm.
// Nothing here touches hardware, storage or the wall clock; time is always
// passed in.
package pedometer

import (
	"fmt"
	"time"
)

// EventKind discriminates the two sensor event variants.
type EventKind int

const (
	// KindAbsolute carries a monotonically non-decreasing cumulative count.
	KindAbsolute EventKind = iota
	// KindPulse signals exactly one step.
	KindPulse
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case KindAbsolute:
		return "absolute"
	case KindPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// Event is a normalized sensor event. Value is only meaningful for
// KindAbsolute.
type Event struct {
	Time  time.Time
	Kind  EventKind
	Value float64
}

// Absolute returns a cumulative counter event.
func Absolute(value float64, t time.Time) Event {
	return Event{Kind: KindAbsolute, Value: value, Time: t}
}

// Pulse returns a single-step event.
func Pulse(t time.Time) Event {
	return Event{Kind: KindPulse, Time: t}
}

// String formats the event for logs.
func (e Event) String() string {
	if e.Kind == KindAbsolute {
		return fmt.Sprintf("absolute(%.0f)", e.Value)
	}
	return e.Kind.String()
}
