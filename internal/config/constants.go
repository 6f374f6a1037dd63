package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/sensor"
)

// Sensor backends.
const (
	BackendIIO  = "iio"
	BackendMQTT = "mqtt"
	BackendFile = "file"
	BackendNone = "none"
)

var backends = []string{BackendIIO, BackendMQTT, BackendFile, BackendNone}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks values that cannot be expressed as struct tags.
func (c *Config) Validate() error {
	if !slices.Contains(backends, c.SensorBackend) {
		return fmt.Errorf("%w: SENSOR_BACKEND %q is not one of %v", ErrInvalid, c.SensorBackend, backends)
	}
	if c.SensorBackend == BackendMQTT && c.MQTTBroker == "" {
		return fmt.Errorf("%w: SENSOR_BACKEND=mqtt requires MQTT_BROKER", ErrInvalid)
	}
	if c.MQTTPublish && c.MQTTBroker == "" {
		return fmt.Errorf("%w: MQTT_PUBLISH requires MQTT_BROKER", ErrInvalid)
	}
	if c.SensorBackend == BackendFile {
		if _, err := c.FileCapabilities(); err != nil {
			return fmt.Errorf("%w: SENSOR_FILE_KINDS: %v", ErrInvalid, err)
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"SENSOR_POLL_INTERVAL", c.SensorPollInterval},
		{"NOTIFY_INTERVAL", c.NotifyInterval},
		{"ROLLOVER_CHECK_INTERVAL", c.RolloverCheckInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, d.name)
		}
	}
	if c.NotifyInitialDelay < 0 {
		return fmt.Errorf("%w: NOTIFY_INITIAL_DELAY must not be negative", ErrInvalid)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("%w: RETENTION_DAYS must not be negative", ErrInvalid)
	}
	if c.DailyGoal <= 0 {
		return fmt.Errorf("%w: DAILY_GOAL must be positive", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// FileCapabilities returns the kinds the file backend advertises.
func (c *Config) FileCapabilities() (sensor.Capabilities, error) {
	return sensor.ParseCapabilities(c.SensorFileKinds)
}
