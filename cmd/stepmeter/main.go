// Package main is the entry point for stepmeter. It loads configuration,
// starts the step services and runs the Bubble Tea program.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/app"
	"github.com/j-veylop/stepmeter/internal/config"
	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/services"
	"github.com/j-veylop/stepmeter/internal/ui/tabs/dashboard"
	"github.com/j-veylop/stepmeter/internal/ui/tabs/history"
	"github.com/j-veylop/stepmeter/internal/ui/tabs/info"
	"github.com/j-veylop/stepmeter/internal/version"
	"github.com/j-veylop/stepmeter/internal/web"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logOut, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logOut.Close()

	logger.Info("Starting stepmeter", "version", version.GetVersion(), "backend", cfg.SensorBackend)

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svcManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, svcManager, logOut)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP API stopped", "addr", cfg.HTTPAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP API shutdown", "error", err)
			}
		}()
	}

	model := app.NewModel(svcManager)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state),
		history.New(state, svcManager),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func printUsage() {
	fmt.Println(`stepmeter - terminal step counter

Usage:
  stepmeter [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  x, then y       Reset today's counter (Dashboard)
  ←/→, ↑/↓        Pick a day and an hour (History)
  d / D, then y   Delete the selected hour / day (History)
  t               Toggle history range (7/30/90 days)
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  DATABASE_PATH            SQLite database path (default: ~/.config/stepmeter/steps.db)
  SENSOR_BACKEND           iio, mqtt, file or none (default: iio)
  IIO_ROOT                 IIO sysfs root (default: /sys/bus/iio/devices)
  SENSOR_POLL_INTERVAL     IIO polling period (default: 40ms)
  SENSOR_FILE_PATH         JSON-lines feed for the file backend
  SENSOR_FILE_KINDS        Sensor kinds the file feed provides (default: step_counter)
  MQTT_BROKER              MQTT broker URL
  MQTT_TOPIC_PREFIX        MQTT topic root (default: stepmeter)
  MQTT_CLIENT_ID           MQTT client id (default: random)
  MQTT_PUBLISH             Publish steps and status to the broker (default: false)
  NOTIFY_ENABLED           Hourly desktop notifications (default: true)
  NOTIFY_INTERVAL          Notification period (default: 1h)
  NOTIFY_INITIAL_DELAY     Delay before the first notification (default: 1h)
  ROLLOVER_CHECK_INTERVAL  Hour and day boundary check period (default: 1m)
  RETENTION_DAYS           Days of hourly history to keep, 0 keeps all (default: 90)
  DAILY_GOAL               Daily step goal (default: 10000)
  HTTP_ADDR                Listen address of the read-only HTTP API
  LOG_PATH                 Log file (default: none)
  LOG_LEVEL                debug, info, warn or error (default: info)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/stepmeter/.env
  - ~/.stepmeter/.env`)
}
