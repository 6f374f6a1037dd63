package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	queryTimeout = 5 * time.Second
)

// Services is the part of the service manager the UI talks to.
type Services interface {
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
	Unsubscribe(ch chan services.ServiceEvent)
	CurrentTotal() int
	Goal() int
	Status() services.StatusEvent
	Projection() *models.GoalProjection
	HourlySeries(ctx context.Context, day models.Day) (models.HourlySeries, error)
	RequestReset()
	DeleteDay(ctx context.Context, day models.Day) error
	DeleteHour(ctx context.Context, day models.Day, hour int) error
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadSnapshotCmd reads today's total, series, status and projection.
func loadSnapshotCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		day := models.DayOf(time.Now())
		series, err := svc.HourlySeries(ctx, day)
		if err != nil {
			return SnapshotLoadedMsg{Error: fmt.Errorf("load today: %w", err)}
		}
		return SnapshotLoadedMsg{Snapshot: Snapshot{
			Day:        day,
			Total:      svc.CurrentTotal(),
			Goal:       svc.Goal(),
			Series:     series,
			Status:     svc.Status(),
			Projection: svc.Projection(),
		}}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(svc Services) tea.Cmd {
	ch, _ := svc.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// resetCmd queues a counter reset.
func resetCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		svc.RequestReset()
		return ResetResultMsg{}
	}
}

// deleteCmd deletes one hour of day, or the whole day when hour < 0.
func deleteCmd(svc Services, day models.Day, hour int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		var err error
		if hour < 0 {
			err = svc.DeleteDay(ctx, day)
		} else {
			err = svc.DeleteHour(ctx, day, hour)
		}
		return DeleteResultMsg{Day: day, Hour: hour, Error: err}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// delayedCmd returns a command that sends a message after a delay.
func delayedCmd(delay time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return msg
	})
}

// Commands exposes the command constructors to the tabs.
type Commands struct {
	services Services
}

// NewCommands creates a new Commands instance.
func NewCommands(svc Services) *Commands {
	return &Commands{services: svc}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// DefaultTick returns a tick command with the default interval.
func (c *Commands) DefaultTick() tea.Cmd {
	return defaultTickCmd()
}

// LoadSnapshot returns a command that reads today's data, or nil without services.
func (c *Commands) LoadSnapshot() tea.Cmd {
	if c.services == nil {
		return nil
	}
	return loadSnapshotCmd(c.services)
}

// Reset returns a command that queues a counter reset.
func (c *Commands) Reset() tea.Cmd {
	if c.services == nil {
		return nil
	}
	return resetCmd(c.services)
}

// Delete returns a command that deletes an hour, or the day when hour < 0.
func (c *Commands) Delete(day models.Day, hour int) tea.Cmd {
	if c.services == nil {
		return nil
	}
	return deleteCmd(c.services, day, hour)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Quit returns a command that quits the application.
func (c *Commands) Quit() tea.Cmd {
	return tea.Quit
}

// Delayed returns a command that sends a message after a delay.
func (c *Commands) Delayed(delay time.Duration, msg tea.Msg) tea.Cmd {
	return delayedCmd(delay, msg)
}

// Batch combines multiple commands into one.
func (c *Commands) Batch(cmds ...tea.Cmd) tea.Cmd {
	return tea.Batch(cmds...)
}
