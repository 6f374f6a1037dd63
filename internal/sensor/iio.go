package sensor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/stepmeter/internal/logger"
)

// DefaultIIORoot is where Linux exposes Industrial I/O devices.
const DefaultIIORoot = "/sys/bus/iio/devices"

// IIO attribute file names.
const (
	iioStepsInput  = "in_steps_input"
	iioStepsEnable = "in_steps_en"
	iioAccelX      = "in_accel_x_raw"
	iioAccelY      = "in_accel_y_raw"
	iioAccelZ      = "in_accel_z_raw"
	iioAccelScale  = "in_accel_scale"
)

// IIOBackend polls Linux IIO sysfs attributes. Devices exposing
// in_steps_input are cumulative counters; devices exposing in_accel_*_raw
// are accelerometers. IIO has no per-step detector.
type IIOBackend struct {
	cancel     context.CancelFunc
	done       chan struct{}
	root       string
	counterDir string
	accelDir   string
	interval   time.Duration
	accelScale float64
	mu         sync.Mutex
}

// NewIIOBackend creates a backend scanning root every interval.
func NewIIOBackend(root string, interval time.Duration) *IIOBackend {
	if root == "" {
		root = DefaultIIORoot
	}
	if interval <= 0 {
		interval = 40 * time.Millisecond
	}
	return &IIOBackend{root: root, interval: interval, accelScale: 1}
}

// Probe scans the device directories.
func (b *IIOBackend) Probe(context.Context) (Capabilities, error) {
	var caps Capabilities

	devices, err := filepath.Glob(filepath.Join(b.root, "iio:device*"))
	if err != nil {
		return caps, fmt.Errorf("failed to scan %s: %w", b.root, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, dir := range devices {
		if b.counterDir == "" && fileExists(filepath.Join(dir, iioStepsInput)) {
			b.counterDir = dir
			caps.Counter = true
			logger.Debug("IIO step counter found", "device", deviceName(dir))
		}
		if b.accelDir == "" && fileExists(filepath.Join(dir, iioAccelX)) {
			b.accelDir = dir
			caps.Accelerometer = true
			if scale, err := readFloat(filepath.Join(dir, iioAccelScale)); err == nil && scale > 0 {
				b.accelScale = scale
			}
			logger.Debug("IIO accelerometer found", "device", deviceName(dir), "scale", b.accelScale)
		}
	}

	return caps, nil
}

// Start begins polling for kind.
func (b *IIOBackend) Start(ctx context.Context, kind Kind) (<-chan Reading, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return nil, errors.New("iio backend already started")
	}

	var poll func() (Reading, bool)
	switch kind {
	case KindCounter:
		if b.counterDir == "" {
			return nil, ErrUnavailable
		}
		enableCounter(b.counterDir)
		poll = b.counterPoller()
	case KindAccelerometer:
		if b.accelDir == "" {
			return nil, ErrUnavailable
		}
		poll = b.accelPoll
	default:
		return nil, fmt.Errorf("iio does not provide %s", kind)
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	out := make(chan Reading, 32)

	go func() {
		defer close(b.done)
		defer close(out)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r, ok := poll()
				if !ok {
					continue
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close stops polling.
func (b *IIOBackend) Close() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// counterPoller emits a reading only when the counter value changes.
func (b *IIOBackend) counterPoller() func() (Reading, bool) {
	path := filepath.Join(b.counterDir, iioStepsInput)
	last := -1.0
	warned := false

	return func() (Reading, bool) {
		v, err := readFloat(path)
		if err != nil {
			if !warned {
				logger.Warn("Failed to read step counter", "path", path, "error", err)
				warned = true
			}
			return Reading{}, false
		}
		warned = false
		if v == last {
			return Reading{}, false
		}
		last = v
		return Reading{Kind: KindCounter, Values: []float64{v}, Time: time.Now()}, true
	}
}

func (b *IIOBackend) accelPoll() (Reading, bool) {
	values := make([]float64, 3)
	for i, name := range []string{iioAccelX, iioAccelY, iioAccelZ} {
		raw, err := readFloat(filepath.Join(b.accelDir, name))
		if err != nil {
			return Reading{}, false
		}
		values[i] = raw * b.accelScale
	}
	return Reading{Kind: KindAccelerometer, Values: values, Time: time.Now()}, true
}

// enableCounter switches the counter on where the driver needs it. Failure
// is not fatal: many drivers count unconditionally or need root to enable.
func enableCounter(dir string) {
	path := filepath.Join(dir, iioStepsEnable)
	if !fileExists(path) {
		return
	}
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		logger.Debug("Could not enable step counter", "path", path, "error", err)
	}
}

func readFloat(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func deviceName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "name"))
	if err != nil {
		return filepath.Base(dir)
	}
	return strings.TrimSpace(string(data))
}
