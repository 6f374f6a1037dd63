// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath          string        `env:"DATABASE_PATH"`
	SensorBackend         string        `env:"SENSOR_BACKEND"          envDefault:"iio"`
	IIORoot               string        `env:"IIO_ROOT"                envDefault:"/sys/bus/iio/devices"`
	SensorFilePath        string        `env:"SENSOR_FILE_PATH"`
	MQTTBroker            string        `env:"MQTT_BROKER"`
	MQTTTopicPrefix       string        `env:"MQTT_TOPIC_PREFIX"       envDefault:"stepmeter"`
	MQTTClientID          string        `env:"MQTT_CLIENT_ID"`
	HTTPAddr              string        `env:"HTTP_ADDR"`
	LogPath               string        `env:"LOG_PATH"`
	LogLevel              string        `env:"LOG_LEVEL"               envDefault:"info"`
	SensorFileKinds       []string      `env:"SENSOR_FILE_KINDS"       envDefault:"step_counter" envSeparator:","`
	SensorPollInterval    time.Duration `env:"SENSOR_POLL_INTERVAL"    envDefault:"40ms"`
	NotifyInterval        time.Duration `env:"NOTIFY_INTERVAL"         envDefault:"1h"`
	NotifyInitialDelay    time.Duration `env:"NOTIFY_INITIAL_DELAY"    envDefault:"1h"`
	RolloverCheckInterval time.Duration `env:"ROLLOVER_CHECK_INTERVAL" envDefault:"1m"`
	RetentionDays         int           `env:"RETENTION_DAYS"          envDefault:"90"`
	DailyGoal             int           `env:"DAILY_GOAL"              envDefault:"10000"`
	MQTTPublish           bool          `env:"MQTT_PUBLISH"`
	NotifyEnabled         bool          `env:"NOTIFY_ENABLED"          envDefault:"true"`
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg, err := parse(nil)
	if err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parse builds a Config from environment, or from the process environment
// when environment is nil.
func parse(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = getDefaultDatabasePath()
	}
	if cfg.SensorFilePath == "" {
		cfg.SensorFilePath = getDefaultFeedPath()
	}
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = "stepmeter-" + uuid.NewString()[:8]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "stepmeter", ".env"),
			filepath.Join(home, ".stepmeter", ".env"),
		)
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "steps.db"
	}
	return filepath.Join(home, ".config", "stepmeter", "steps.db")
}

// getDefaultFeedPath returns the default path for the file backend feed.
func getDefaultFeedPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "readings.jsonl"
	}
	return filepath.Join(home, ".config", "stepmeter", "readings.jsonl")
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
