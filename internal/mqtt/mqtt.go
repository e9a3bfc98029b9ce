// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/nexus-receiver/internal/logic"
)

// DefaultBaseTopic is the topic prefix used when none is configured.
const DefaultBaseTopic = "home/nexus"

// Model is reported in every reading payload, matching rtl_433's name for
// the protocol.
const Model = "Nexus-TH"

// EventsTopic returns the topic sensor events are published on.
func EventsTopic(base string) string {
	return base + "/events"
}

// SystemTopic returns the topic system lifecycle events are published on.
func SystemTopic(base string) string {
	return base + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sensor event to the broker.
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
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the message published for a sensor event. Field names follow
// rtl_433's JSON output so existing consumers can read it.
type Payload struct {
	Time         string  `json:"time"`
	Model        string  `json:"model"`
	Event        string  `json:"event"`
	ID           int     `json:"id"`
	Channel      int     `json:"channel"`
	BatteryOK    int     `json:"battery_ok"`
	TemperatureC float64 `json:"temperature_C"`
	Humidity     int     `json:"humidity"`
}

// FormatPayload creates the JSON payload for a sensor event. The channel is
// reported 1-based, as printed on the sensor's switch.
func FormatPayload(event logic.Event) ([]byte, error) {
	r := event.Reading
	payload := Payload{
		Time:         event.Timestamp.UTC().Format(time.RFC3339),
		Model:        Model,
		Event:        string(event.Type),
		ID:           int(r.ID),
		Channel:      int(r.Channel) + 1,
		TemperatureC: r.Celsius(),
		Humidity:     int(r.Humidity),
	}
	if r.BatteryOK {
		payload.BatteryOK = 1
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
		},
	}
	return json.Marshal(payload)
}
