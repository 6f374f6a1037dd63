// Package sensor discovers step sensors, selects the best available kind and
// reconciles raw callbacks into pedometer events.
//
// A Backend is one platform integration (Linux IIO, an MQTT bridge, a
// JSON-lines file). It reports which kinds it can deliver and streams raw
// Readings for the kind it is started with. Source wraps a started backend
// and is the only thing the rest of the program consumes.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable means no step sensor kind is available.
var ErrUnavailable = errors.New("no step sensor available")

// ErrClosed is returned by Source.Next after the backend stopped delivering.
var ErrClosed = errors.New("sensor source closed")

// Kind is a sensor capability.
type Kind int

const (
	// KindNone means no sensor was selected.
	KindNone Kind = iota
	// KindCounter is a hardware cumulative step counter.
	KindCounter
	// KindDetector is a hardware per-step detector.
	KindDetector
	// KindAccelerometer is a raw three-axis accelerometer.
	KindAccelerometer
)

// Wire names of the kinds.
const (
	NameCounter       = "step_counter"
	NameDetector      = "step_detector"
	NameAccelerometer = "accelerometer"
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return NameCounter
	case KindDetector:
		return NameDetector
	case KindAccelerometer:
		return NameAccelerometer
	default:
		return "none"
	}
}

// Label returns a human readable name.
func (k Kind) Label() string {
	switch k {
	case KindCounter:
		return "Hardware step counter"
	case KindDetector:
		return "Hardware step detector"
	case KindAccelerometer:
		return "Accelerometer (software)"
	default:
		return "No sensor"
	}
}

// ParseKind parses a wire name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case NameCounter:
		return KindCounter, nil
	case NameDetector:
		return KindDetector, nil
	case NameAccelerometer:
		return KindAccelerometer, nil
	default:
		return KindNone, fmt.Errorf("unknown sensor kind %q", s)
	}
}

// Capabilities lists the kinds a backend can deliver.
type Capabilities struct {
	Counter       bool
	Detector      bool
	Accelerometer bool
}

// Has reports whether kind is available.
func (c Capabilities) Has(kind Kind) bool {
	switch kind {
	case KindCounter:
		return c.Counter
	case KindDetector:
		return c.Detector
	case KindAccelerometer:
		return c.Accelerometer
	default:
		return false
	}
}

// Add marks kind as available.
func (c *Capabilities) Add(kind Kind) {
	switch kind {
	case KindCounter:
		c.Counter = true
	case KindDetector:
		c.Detector = true
	case KindAccelerometer:
		c.Accelerometer = true
	}
}

// ParseCapabilities builds Capabilities from wire names. Unknown names are
// an error.
func ParseCapabilities(names []string) (Capabilities, error) {
	var c Capabilities
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		k, err := ParseKind(n)
		if err != nil {
			return c, err
		}
		c.Add(k)
	}
	return c, nil
}

// Reading is one raw sensor callback.
//
// Counter readings carry the cumulative count in Values[0]. Detector
// readings carry 1.0 in Values[0] for a step. Accelerometer readings carry
// x, y, z in m/s².
type Reading struct {
	Time   time.Time
	Values []float64
	Kind   Kind
}

// Backend is a platform sensor integration.
type Backend interface {
	// Probe reports the available kinds.
	Probe(ctx context.Context) (Capabilities, error)
	// Start begins delivery of readings for kind. The channel is closed when
	// the backend stops.
	Start(ctx context.Context, kind Kind) (<-chan Reading, error)
	// Close stops delivery and releases resources.
	Close() error
}
