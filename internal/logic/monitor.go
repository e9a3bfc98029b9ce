package logic

import (
	"sort"
	"time"

	"github.com/sweeney/nexus-receiver/internal/nexus"
)

// Monitor turns decoded readings into per-sensor events.
type Monitor struct {
	dedup         time.Duration
	staleAfter    time.Duration
	startTime     time.Time
	sensors       map[SensorKey]*SensorState
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor. Identical readings from one sensor within
// dedup of the last emitted one are suppressed, and sensors silent for
// staleAfter are reported stale (0 disables). The startTime is used for
// calculating uptime in heartbeat events.
func NewMonitor(dedup, staleAfter time.Duration, startTime time.Time) *Monitor {
	return &Monitor{
		dedup:         dedup,
		staleAfter:    staleAfter,
		startTime:     startTime,
		sensors:       make(map[SensorKey]*SensorState),
		lastHeartbeat: startTime,
	}
}

// Process takes a reading from the decoder and returns any events that
// should be emitted.
func (m *Monitor) Process(r nexus.Reading, now time.Time) []Event {
	if !r.ValidChannel() {
		m.eventCounts.Invalid++
		return nil
	}

	key := KeyOf(r)
	s, ok := m.sensors[key]
	if !ok {
		s = &SensorState{Key: key, FirstSeen: now}
		m.sensors[key] = s
	} else if !s.Stale && s.Last == r && now.Sub(s.LastEmitted) < m.dedup {
		// Repeat from the same burst.
		s.LastSeen = now
		m.eventCounts.Duplicates++
		return nil
	}

	s.Last = r
	s.LastSeen = now
	s.LastEmitted = now
	s.Stale = false
	s.Readings++
	m.eventCounts.Readings++

	return []Event{{
		Timestamp: now,
		Type:      EventReading,
		Sensor:    key,
		Reading:   r,
	}}
}

// Expire returns a STALE event for each sensor that has not been heard from
// for the stale interval. Each silence is reported once.
func (m *Monitor) Expire(now time.Time) []Event {
	if m.staleAfter <= 0 {
		return nil
	}

	var events []Event
	for _, s := range m.sorted() {
		if s.Stale || now.Sub(s.LastSeen) < m.staleAfter {
			continue
		}
		s.Stale = true
		m.eventCounts.Stale++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventStale,
			Sensor:    s.Key,
			Reading:   s.Last,
		})
	}
	return events
}

// Sensors returns a copy of every known sensor, ordered by id then channel.
func (m *Monitor) Sensors() []SensorState {
	sorted := m.sorted()
	out := make([]SensorState, len(sorted))
	for i, s := range sorted {
		out[i] = *s
	}
	return out
}

// Counts returns the event counts since startup.
func (m *Monitor) Counts() EventCounts {
	return m.eventCounts
}

func (m *Monitor) sorted() []*SensorState {
	out := make([]*SensorState, 0, len(m.sensors))
	for _, s := range m.sensors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ID != out[j].Key.ID {
			return out[i].Key.ID < out[j].Key.ID
		}
		return out[i].Key.Channel < out[j].Key.Channel
	})
	return out
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
		Sensors:   len(m.sensors),
	}
}
