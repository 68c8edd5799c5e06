// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/aux-lights/internal/logic"
)

// Topic is the MQTT topic for light events.
const Topic = "vehicle/aux-lights/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "vehicle/aux-lights/system"

const (
	eventQoS  byte = 0 // at most once, not retained
	systemQoS byte = 1 // at least once
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a light event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Dropped    int    // buffered messages lost while offline (RECONNECTED only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Lights LightsPayload `json:"aux_lights"`
}

// LightsPayload contains the light event details.
type LightsPayload struct {
	Timestamp string      `json:"timestamp"`
	Event     string      `json:"event"`
	Mode      string      `json:"mode,omitempty"`
	Outputs   OutputState `json:"outputs"`
}

// OutputState carries the on/off state of every output after the event.
type OutputState struct {
	Mirror string `json:"mirror"`
	Edge   string `json:"edge"`
	Red    string `json:"red"`
	RGB    string `json:"rgb"`
}

// OnOff renders a boolean output as ON or OFF.
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// FormatPayload creates the JSON payload for a light event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Lights: LightsPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Mode:      string(event.Mode),
			Outputs: OutputState{
				Mirror: OnOff(event.Lights.Mirror),
				Edge:   OnOff(event.Lights.Edge),
				Red:    OnOff(event.Lights.Red),
				RGB:    OnOff(event.Lights.RGB),
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	Dropped   int    `json:"dropped,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Dropped:   event.Dropped,
		},
	}
	return json.Marshal(payload)
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(logic.Event) error       { return nil }
func (Noop) PublishSystem(SystemEvent) error { return nil }
func (Noop) Close() error                    { return nil }
func (Noop) IsConnected() bool               { return false }
