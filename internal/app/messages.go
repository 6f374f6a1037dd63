package app

import (
	"time"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services"
)

// Snapshot is everything the dashboard needs to render today.
type Snapshot struct {
	Projection *models.GoalProjection
	Day        models.Day
	Series     models.HourlySeries
	Status     services.StatusEvent
	Total      int
	Goal       int
}

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// SnapshotLoadedMsg carries a freshly read Snapshot.
type SnapshotLoadedMsg struct {
	Error    error
	Snapshot Snapshot
}

// RefreshMsg requests a reload of today's data.
type RefreshMsg struct {
	Resource string // "all", "today"
}

// StepsUpdatedMsg is forwarded to the tabs after the live total changed.
type StepsUpdatedMsg struct {
	Day   models.Day
	Total int
}

// SeriesUpdatedMsg is forwarded to the tabs after a day's committed hours
// changed.
type SeriesUpdatedMsg struct {
	Day models.Day
}

// ProjectionUpdatedMsg is forwarded to the tabs after the goal projection
// was recalculated.
type ProjectionUpdatedMsg struct {
	Projection *models.GoalProjection
}

// ResetRequestMsg asks the step counter to start again from zero.
type ResetRequestMsg struct{}

// ResetResultMsg reports that a reset was queued.
type ResetResultMsg struct{}

// DeleteRequestMsg asks to delete ledger rows. Hour < 0 deletes the whole day.
type DeleteRequestMsg struct {
	Day  models.Day
	Hour int
}

// DeleteResultMsg contains the result of a DeleteRequestMsg.
type DeleteResultMsg struct {
	Error error
	Day   models.Day
	Hour  int
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
