package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(map[string]string{"DATABASE_PATH": "/tmp/steps.db"})
	if err != nil {
		t.Fatalf("parse() failed: %v", err)
	}

	if cfg.DatabasePath != "/tmp/steps.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.SensorBackend != BackendIIO {
		t.Errorf("SensorBackend = %q, want %q", cfg.SensorBackend, BackendIIO)
	}
	if cfg.SensorPollInterval != 40*time.Millisecond {
		t.Errorf("SensorPollInterval = %v", cfg.SensorPollInterval)
	}
	if cfg.NotifyInterval != time.Hour || cfg.NotifyInitialDelay != time.Hour {
		t.Errorf("notify timings = %v / %v", cfg.NotifyInterval, cfg.NotifyInitialDelay)
	}
	if !cfg.NotifyEnabled || cfg.MQTTPublish {
		t.Errorf("NotifyEnabled = %v, MQTTPublish = %v", cfg.NotifyEnabled, cfg.MQTTPublish)
	}
	if cfg.RetentionDays != 90 || cfg.DailyGoal != 10000 {
		t.Errorf("RetentionDays = %d, DailyGoal = %d", cfg.RetentionDays, cfg.DailyGoal)
	}
	if len(cfg.SensorFileKinds) != 1 || cfg.SensorFileKinds[0] != "step_counter" {
		t.Errorf("SensorFileKinds = %v", cfg.SensorFileKinds)
	}
	if !strings.HasPrefix(cfg.MQTTClientID, "stepmeter-") {
		t.Errorf("MQTTClientID = %q", cfg.MQTTClientID)
	}
	if cfg.SensorFilePath == "" {
		t.Error("SensorFilePath should default")
	}
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(map[string]string{
		"DATABASE_PATH":     "/tmp/steps.db",
		"SENSOR_BACKEND":    "file",
		"SENSOR_FILE_KINDS": "step_detector,accelerometer",
		"MQTT_BROKER":       "tcp://localhost:1883",
		"MQTT_PUBLISH":      "true",
		"MQTT_CLIENT_ID":    "phone",
		"NOTIFY_INTERVAL":   "30m",
		"DAILY_GOAL":        "8000",
		"LOG_LEVEL":         "debug",
	})
	if err != nil {
		t.Fatalf("parse() failed: %v", err)
	}

	if cfg.NotifyInterval != 30*time.Minute || cfg.DailyGoal != 8000 {
		t.Errorf("NotifyInterval = %v, DailyGoal = %d", cfg.NotifyInterval, cfg.DailyGoal)
	}
	if cfg.MQTTClientID != "phone" || !cfg.MQTTPublish {
		t.Errorf("MQTTClientID = %q, MQTTPublish = %v", cfg.MQTTClientID, cfg.MQTTPublish)
	}
	caps, err := cfg.FileCapabilities()
	if err != nil {
		t.Fatalf("FileCapabilities() failed: %v", err)
	}
	if caps.Counter || !caps.Detector || !caps.Accelerometer {
		t.Errorf("FileCapabilities() = %+v", caps)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"UnknownBackend", map[string]string{"SENSOR_BACKEND": "bluetooth"}},
		{"MQTTWithoutBroker", map[string]string{"SENSOR_BACKEND": "mqtt"}},
		{"PublishWithoutBroker", map[string]string{"MQTT_PUBLISH": "true"}},
		{"BadFileKinds", map[string]string{"SENSOR_BACKEND": "file", "SENSOR_FILE_KINDS": "gyroscope"}},
		{"ZeroInterval", map[string]string{"NOTIFY_INTERVAL": "0s"}},
		{"NegativeRetention", map[string]string{"RETENTION_DAYS": "-1"}},
		{"ZeroGoal", map[string]string{"DAILY_GOAL": "0"}},
		{"BadLogLevel", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.env["DATABASE_PATH"] = "/tmp/steps.db"
			_, err := parse(tt.env)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("parse() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := parse(map[string]string{"DAILY_GOAL": "lots"}); err == nil {
		t.Error("parse() should fail on a non-integer goal")
	}
	if _, err := parse(map[string]string{"SENSOR_POLL_INTERVAL": "fast"}); err == nil {
		t.Error("parse() should fail on a malformed duration")
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Skipping test because user home dir cannot be found")
	}

	dbPath := getDefaultDatabasePath()
	expectedDb := filepath.Join(home, ".config", "stepmeter", "steps.db")
	if dbPath != expectedDb {
		t.Errorf("getDefaultDatabasePath() = %q, want %q", dbPath, expectedDb)
	}

	feedPath := getDefaultFeedPath()
	expectedFeed := filepath.Join(home, ".config", "stepmeter", "readings.jsonl")
	if feedPath != expectedFeed {
		t.Errorf("getDefaultFeedPath() = %q, want %q", feedPath, expectedFeed)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	// Basic check that it contains current directory
	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("HOME", tmpDir)

	envFile := "SENSOR_BACKEND=none\nDAILY_GOAL=7500\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(envFile), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "data", "steps.db"))
	// godotenv does not override variables that are already set.
	t.Setenv("DAILY_GOAL", "9000")
	t.Cleanup(func() { os.Unsetenv("SENSOR_BACKEND") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SensorBackend != BackendNone {
		t.Errorf("SensorBackend = %q, want %q", cfg.SensorBackend, BackendNone)
	}
	if cfg.DailyGoal != 9000 {
		t.Errorf("DailyGoal = %d, want 9000", cfg.DailyGoal)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "data")); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}
