// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing toast.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Today   bool
}

// State is the data shared between the root model and the tabs. It mirrors
// what the service manager last broadcast.
type State struct {
	mu sync.RWMutex

	Day           models.Day
	Total         int
	OpenHourSteps int
	Goal          int
	Series        models.HourlySeries
	Status        services.StatusEvent
	Projection    *models.GoalProjection

	Loading     LoadingState
	LastUpdated time.Time

	notifications []Notification
}

// NewState returns an empty state in the initial loading phase.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading:       LoadingState{Initial: true},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "today":
		s.Loading.Today = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial || s.Loading.Today
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// ApplySnapshot replaces everything the snapshot covers.
func (s *State) ApplySnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Day = snap.Day
	s.Total = snap.Total
	s.Goal = snap.Goal
	s.Series = snap.Series
	s.Status = snap.Status
	s.Projection = snap.Projection
	s.LastUpdated = time.Now()
}

// SetSteps records the live total of day. A new day clears the series so
// yesterday's hours are not drawn under today's total.
func (s *State) SetSteps(day models.Day, total, openHour int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if day != s.Day {
		s.Series = models.NewHourlySeries(day, nil)
		s.Projection = nil
	}
	s.Day = day
	s.Total = total
	s.OpenHourSteps = openHour
	s.LastUpdated = time.Now()
}

// GetSteps returns the tracked day, its total and the steps of the open hour.
func (s *State) GetSteps() (day models.Day, total, openHour int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Day, s.Total, s.OpenHourSteps
}

// SetSeries stores the committed series of day if it is the tracked day.
// It reports whether the series was accepted.
func (s *State) SetSeries(day models.Day, series models.HourlySeries) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Day.IsZero() && day != s.Day {
		return false
	}
	s.Day = day
	s.Series = series
	return true
}

// GetSeries returns the committed hourly series of the tracked day.
func (s *State) GetSeries() models.HourlySeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Series == nil {
		return models.NewHourlySeries(s.Day, nil)
	}
	out := make(models.HourlySeries, len(s.Series))
	copy(out, s.Series)
	return out
}

// SetStatus updates the sensor status.
func (s *State) SetStatus(status services.StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

// GetStatus returns the sensor status.
func (s *State) GetStatus() services.StatusEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// GetGoal returns the daily goal.
func (s *State) GetGoal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Goal
}

func (s *State) SetProjection(proj *models.GoalProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Projection = proj
}

func (s *State) GetProjection() *models.GoalProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Projection
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	active := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
