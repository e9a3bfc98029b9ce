// Package status provides a thread-safe status tracker for the nexus-receiver
// daemon. It is read by the HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/nexus-receiver/internal/logic"
	"github.com/sweeney/nexus-receiver/internal/nexus"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	HeartbeatMs  int64
	StaleAfterMs int64
	DedupMs      int64
	Broker       string
	Topic        string
	HTTPAddr     string
	Chip         string
	Pin          int
	Simulate     bool
}

// Snapshot is a point-in-time view of daemon state. It is safe to use after
// the lock is released.
type Snapshot struct {
	Sensors       []logic.SensorState
	Counts        logic.EventCounts
	Decoder       nexus.Stats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the known sensors, event counts and decoder counters.
// Called from runLoop on every tick.
func (t *Tracker) Update(sensors []logic.SensorState, counts logic.EventCounts, stats nexus.Stats) {
	cp := make([]logic.SensorState, len(sensors))
	copy(cp, sensors)

	t.mu.Lock()
	t.snap.Sensors = cp
	t.snap.Counts = counts
	t.snap.Decoder = stats
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
