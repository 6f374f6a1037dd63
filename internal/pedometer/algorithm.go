package pedometer

import (
	"math"
	"time"
)

// Accelerometer step detection parameters, in m/s² unless noted.
const (
	// BufferSize is the number of magnitudes averaged for smoothing.
	BufferSize = 3
	// MinMagnitude is the lowest smoothed magnitude that can count as a step.
	MinMagnitude = 8.0
	// MaxMagnitude is the highest smoothed magnitude that can count as a step.
	MaxMagnitude = 20.0
	// RiseThreshold is the minimum rise over the previous smoothed value.
	RiseThreshold = 1.5
	// Refractory is the minimum gap between two counted steps.
	Refractory = 300 * time.Millisecond
	// Gravity seeds the previous smoothed value after a reset so the first
	// samples at rest do not register as a rising edge.
	Gravity = 9.8
)

// Algorithm detects steps from raw three-axis accelerometer samples.
// It is not safe for concurrent use.
type Algorithm struct {
	lastPulse    time.Time
	buffer       [BufferSize]float64
	filled       int
	next         int
	prevSmoothed float64
	steps        int
	pulsed       bool
}

// NewAlgorithm returns an algorithm in its reset state.
func NewAlgorithm() *Algorithm {
	a := &Algorithm{}
	a.Reset()
	return a
}

// Process consumes one sample and reports whether a step was detected.
//
// The sample magnitude enters a ring buffer; the mean of the buffered values
// is the smoothed magnitude. A step fires when the smoothed magnitude lies in
// [MinMagnitude, MaxMagnitude], rose by more than RiseThreshold since the
// previous sample, and more than Refractory has elapsed since the last step.
func (a *Algorithm) Process(x, y, z float64, t time.Time) bool {
	magnitude := math.Sqrt(x*x + y*y + z*z)

	a.buffer[a.next] = magnitude
	a.next = (a.next + 1) % BufferSize
	if a.filled < BufferSize {
		a.filled++
	}

	smoothed := a.smoothed()
	rise := smoothed - a.prevSmoothed
	a.prevSmoothed = smoothed

	if smoothed < MinMagnitude || smoothed > MaxMagnitude {
		return false
	}
	if rise <= RiseThreshold {
		return false
	}
	if a.pulsed && t.Sub(a.lastPulse) <= Refractory {
		return false
	}

	a.pulsed = true
	a.lastPulse = t
	a.steps++
	return true
}

// Steps returns the number of steps detected since the last reset.
func (a *Algorithm) Steps() int {
	return a.steps
}

// Smoothed returns the most recent smoothed magnitude.
func (a *Algorithm) Smoothed() float64 {
	return a.prevSmoothed
}

// Reset clears the count and the buffer and re-seeds the smoothing baseline.
func (a *Algorithm) Reset() {
	a.buffer = [BufferSize]float64{}
	a.filled = 0
	a.next = 0
	a.prevSmoothed = Gravity
	a.steps = 0
	a.pulsed = false
	a.lastPulse = time.Time{}
}

func (a *Algorithm) smoothed() float64 {
	if a.filled == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < a.filled; i++ {
		sum += a.buffer[i]
	}
	return sum / float64(a.filled)
}
