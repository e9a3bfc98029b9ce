// Package logic contains pure business logic for tracking sensors from
// decoded readings. This package has NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). Time is always injectable via time.Time
// parameters.
package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/nexus-receiver/internal/nexus"
)

// EventType identifies what happened to a sensor.
type EventType string

const (
	EventReading EventType = "READING"
	EventStale   EventType = "STALE"
)

// SensorKey identifies a sensor. The id is re-randomised when a sensor's
// batteries are changed, so the channel is part of the key.
type SensorKey struct {
	ID      uint8
	Channel uint8
}

// KeyOf returns the key of the sensor that sent r.
func KeyOf(r nexus.Reading) SensorKey {
	return SensorKey{ID: r.ID, Channel: r.Channel}
}

// String formats the key as id/channel, channel 1-based.
func (k SensorKey) String() string {
	return fmt.Sprintf("0x%02x/%d", k.ID, k.Channel+1)
}

// Event is a sensor update to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Sensor    SensorKey
	// Reading is the new reading, or the last one seen for STALE.
	Reading nexus.Reading
}

// SensorState is what the monitor knows about one sensor.
type SensorState struct {
	Key         SensorKey
	Last        nexus.Reading
	FirstSeen   time.Time
	LastSeen    time.Time
	LastEmitted time.Time
	Readings    int
	Stale       bool
}

// EventCounts tracks the number of each outcome since startup.
type EventCounts struct {
	Readings   int
	Duplicates int
	Invalid    int
	Stale      int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
	Sensors   int
}
