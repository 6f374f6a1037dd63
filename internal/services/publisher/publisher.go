// Package publisher mirrors the step total and counting status to an MQTT
// broker.
package publisher

import (
	"encoding/json"
	"time"

	"github.com/j-veylop/stepmeter/internal/models"
)

// Topics below the configured prefix.
const (
	TopicSteps  = "steps"
	TopicStatus = "status"
)

// Publisher publishes step updates and status changes.
type Publisher interface {
	// PublishSteps sends the current total. Failures must not stop counting.
	PublishSteps(update StepsUpdate) error

	// PublishStatus sends a retained status document.
	PublishStatus(status Status) error

	// Close disconnects from the broker.
	Close() error
}

// StepsUpdate is today's running total at a point in time.
type StepsUpdate struct {
	Timestamp time.Time
	Day       models.Day
	Total     int
}

// Status describes whether counting is running and from which sensor.
type Status struct {
	Source  string
	Running bool
}

// StepsPayload is the message body for TopicSteps.
type StepsPayload struct {
	Steps StepsPayloadInner `json:"steps"`
}

// StepsPayloadInner contains the step details.
type StepsPayloadInner struct {
	Day       string `json:"day"`
	Timestamp string `json:"timestamp"`
	Total     int    `json:"total"`
}

// StatusPayload is the message body for TopicStatus.
type StatusPayload struct {
	Status StatusPayloadInner `json:"status"`
}

// StatusPayloadInner contains the status details.
type StatusPayloadInner struct {
	Source  string `json:"source,omitempty"`
	Running bool   `json:"running"`
}

// FormatSteps creates the JSON payload for a steps update.
func FormatSteps(u StepsUpdate) ([]byte, error) {
	return json.Marshal(StepsPayload{
		Steps: StepsPayloadInner{
			Day:       u.Day.String(),
			Timestamp: u.Timestamp.UTC().Format(time.RFC3339),
			Total:     u.Total,
		},
	})
}

// FormatStatus creates the JSON payload for a status document.
func FormatStatus(s Status) ([]byte, error) {
	return json.Marshal(StatusPayload{
		Status: StatusPayloadInner{Source: s.Source, Running: s.Running},
	})
}

// Topic joins prefix and name.
func Topic(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
