package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/stepmeter/internal/pedometer"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want Kind
	}{
		{"All", Capabilities{Counter: true, Detector: true, Accelerometer: true}, KindCounter},
		{"DetectorAndAccel", Capabilities{Detector: true, Accelerometer: true}, KindDetector},
		{"AccelOnly", Capabilities{Accelerometer: true}, KindAccelerometer},
		{"CounterAndAccel", Capabilities{Counter: true, Accelerometer: true}, KindCounter},
		{"None", Capabilities{}, KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.caps); got != tt.want {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindCounter, KindDetector, KindAccelerometer} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = (%v, %v)", k.String(), got, err)
		}
	}
	if _, err := ParseKind("gyroscope"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if KindNone.String() != "none" || KindNone.Label() != "No sensor" {
		t.Errorf("unexpected KindNone names %q / %q", KindNone.String(), KindNone.Label())
	}
}

func TestParseCapabilities(t *testing.T) {
	caps, err := ParseCapabilities([]string{"step_counter", " accelerometer ", ""})
	if err != nil {
		t.Fatalf("ParseCapabilities failed: %v", err)
	}
	if !caps.Has(KindCounter) || caps.Has(KindDetector) || !caps.Has(KindAccelerometer) {
		t.Errorf("unexpected capabilities %+v", caps)
	}
	if caps.Has(KindNone) {
		t.Error("KindNone is never available")
	}
	if _, err := ParseCapabilities([]string{"barometer"}); err == nil {
		t.Error("expected error for unknown name")
	}
}

func openFake(t *testing.T, caps Capabilities) (*Source, *FakeBackend) {
	t.Helper()
	fake := NewFakeBackend(caps)
	src, err := Open(context.Background(), fake)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src, fake
}

func next(t *testing.T, src *Source) pedometer.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	return ev
}

func TestOpen_Unavailable(t *testing.T) {
	_, err := Open(context.Background(), NewFakeBackend(Capabilities{}))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestOpen_ProbeAndStartErrors(t *testing.T) {
	fake := NewFakeBackend(Capabilities{Counter: true})
	fake.ProbeError = errors.New("permission denied")
	if _, err := Open(context.Background(), fake); err == nil {
		t.Error("expected probe error")
	}

	fake = NewFakeBackend(Capabilities{Counter: true})
	fake.StartError = errors.New("busy")
	if _, err := Open(context.Background(), fake); err == nil {
		t.Error("expected start error")
	}
}

func TestSource_Counter(t *testing.T) {
	src, fake := openFake(t, Capabilities{Counter: true, Accelerometer: true})
	if src.Kind() != KindCounter || fake.Started != KindCounter {
		t.Fatalf("expected counter selected, got %v", src.Kind())
	}

	_ = fake.Emit(Reading{Kind: KindAccelerometer, Values: []float64{0, 0, 15}, Time: t0})
	_ = fake.Emit(Reading{Kind: KindCounter, Values: []float64{1234}, Time: t0})

	ev := next(t, src)
	if ev.Kind != pedometer.KindAbsolute || ev.Value != 1234 || !ev.Time.Equal(t0) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestSource_DetectorOnlyCountsOne(t *testing.T) {
	src, fake := openFake(t, Capabilities{Detector: true})

	_ = fake.Emit(Reading{Kind: KindDetector, Values: []float64{0}, Time: t0})
	_ = fake.Emit(Reading{Kind: KindDetector, Values: []float64{2}, Time: t0})
	_ = fake.Emit(Reading{Kind: KindDetector, Values: []float64{1}, Time: t0.Add(time.Second)})

	ev := next(t, src)
	if ev.Kind != pedometer.KindPulse || !ev.Time.Equal(t0.Add(time.Second)) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestSource_Accelerometer(t *testing.T) {
	src, fake := openFake(t, Capabilities{Accelerometer: true})

	samples := []struct {
		ms int
		z  float64
	}{
		{0, 9.8}, {20, 9.8}, {40, 9.8}, {60, 15}, {160, 20},
	}
	_ = fake.Emit(Reading{Kind: KindAccelerometer, Values: []float64{1}, Time: t0})
	for _, s := range samples {
		_ = fake.Emit(Reading{
			Kind:   KindAccelerometer,
			Values: []float64{0, 0, s.z},
			Time:   t0.Add(time.Duration(s.ms) * time.Millisecond),
		})
	}

	ev := next(t, src)
	if ev.Kind != pedometer.KindPulse || !ev.Time.Equal(t0.Add(60*time.Millisecond)) {
		t.Errorf("unexpected event %+v", ev)
	}

	// The 160ms sample is inside the refractory window.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if ev, err := src.Next(ctx); err == nil {
		t.Errorf("unexpected second event %+v", ev)
	}

	src.ResetAlgorithm()
	_ = fake.Emit(Reading{Kind: KindAccelerometer, Values: []float64{0, 0, 12}, Time: t0.Add(200 * time.Millisecond)})
	if ev := next(t, src); ev.Kind != pedometer.KindPulse {
		t.Errorf("expected pulse after reset, got %+v", ev)
	}
}

func TestSource_ZeroTimeUsesArrival(t *testing.T) {
	src, fake := openFake(t, Capabilities{Counter: true})
	before := time.Now()
	_ = fake.Emit(Reading{Kind: KindCounter, Values: []float64{5}})
	ev := next(t, src)
	if ev.Time.Before(before) {
		t.Errorf("event time %v before arrival %v", ev.Time, before)
	}
}

func TestSource_Closed(t *testing.T) {
	src, fake := openFake(t, Capabilities{Counter: true})
	_ = fake.Close()
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
