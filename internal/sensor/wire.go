package sensor

import (
	"encoding/json"
	"fmt"
	"time"
)

// readingMessage is the JSON form of a Reading used by the MQTT and file
// backends:
//
//	{"sensor":"step_counter","values":[1234],"timestamp":"2026-01-01T12:00:00Z"}
type readingMessage struct {
	Sensor    string    `json:"sensor"`
	Timestamp string    `json:"timestamp,omitempty"`
	Values    []float64 `json:"values"`
}

// capabilitiesMessage is the JSON form of Capabilities:
//
//	{"sensors":["step_counter","accelerometer"]}
type capabilitiesMessage struct {
	Sensors []string `json:"sensors"`
}

// DecodeReading parses one JSON reading. A missing timestamp reads as the
// zero time and is replaced with the arrival time by Source.
func DecodeReading(data []byte) (Reading, error) {
	var msg readingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Reading{}, fmt.Errorf("invalid reading: %w", err)
	}
	kind, err := ParseKind(msg.Sensor)
	if err != nil {
		return Reading{}, err
	}
	if len(msg.Values) == 0 {
		return Reading{}, fmt.Errorf("reading for %s has no values", msg.Sensor)
	}

	r := Reading{Kind: kind, Values: msg.Values}
	if msg.Timestamp != "" {
		t, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid reading timestamp %q: %w", msg.Timestamp, err)
		}
		r.Time = t
	}
	return r, nil
}

// DecodeCapabilities parses a capabilities document.
func DecodeCapabilities(data []byte) (Capabilities, error) {
	var msg capabilitiesMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Capabilities{}, fmt.Errorf("invalid capabilities: %w", err)
	}
	return ParseCapabilities(msg.Sensors)
}
