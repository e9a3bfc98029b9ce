package logic

import (
	"testing"
	"time"

	"github.com/sweeney/nexus-receiver/internal/nexus"
)

var (
	kitchen = nexus.Reading{ID: 0x12, Channel: 0, BatteryOK: true, TemperatureTenths: 205, Humidity: 48}
	garage  = nexus.Reading{ID: 0x9C, Channel: 1, BatteryOK: false, TemperatureTenths: -32, Humidity: 77}
)

func startTime() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func TestNewMonitor(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 5*time.Minute, now)
	if m == nil {
		t.Fatal("NewMonitor returned nil")
	}
	if m.dedup != 2*time.Second {
		t.Errorf("expected dedup 2s, got %v", m.dedup)
	}
	if m.staleAfter != 5*time.Minute {
		t.Errorf("expected staleAfter 5m, got %v", m.staleAfter)
	}
	if !m.lastHeartbeat.Equal(now) {
		t.Errorf("expected lastHeartbeat %v, got %v", now, m.lastHeartbeat)
	}
	if len(m.Sensors()) != 0 {
		t.Error("new monitor should know no sensors")
	}
}

func TestFirstReadingEmits(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	events := m.Process(kitchen, now)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventReading {
		t.Errorf("expected READING, got %s", e.Type)
	}
	if e.Sensor != (SensorKey{ID: 0x12, Channel: 0}) {
		t.Errorf("unexpected sensor %v", e.Sensor)
	}
	if e.Reading != kitchen {
		t.Errorf("expected reading %v, got %v", kitchen, e.Reading)
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, e.Timestamp)
	}
}

func TestBurstRepeatsSuppressed(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	m.Process(kitchen, now)
	for i := 1; i <= 3; i++ {
		if events := m.Process(kitchen, now.Add(time.Duration(i)*250*time.Millisecond)); len(events) != 0 {
			t.Errorf("repeat %d: expected no events, got %d", i, len(events))
		}
	}

	c := m.Counts()
	if c.Readings != 1 || c.Duplicates != 3 {
		t.Errorf("expected 1 reading and 3 duplicates, got %+v", c)
	}
}

func TestRepeatAfterDedupWindowEmits(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	m.Process(kitchen, now)
	if events := m.Process(kitchen, now.Add(2*time.Second)); len(events) != 1 {
		t.Errorf("expected reading at the window edge, got %d events", len(events))
	}
}

func TestDuplicatesDoNotExtendDedupWindow(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	m.Process(kitchen, now)
	m.Process(kitchen, now.Add(1500*time.Millisecond))
	if events := m.Process(kitchen, now.Add(2500*time.Millisecond)); len(events) != 1 {
		t.Errorf("expected reading 2.5s after last emit, got %d events", len(events))
	}
}

func TestChangedReadingEmitsInsideWindow(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	m.Process(kitchen, now)
	warmer := kitchen
	warmer.TemperatureTenths++
	events := m.Process(warmer, now.Add(100*time.Millisecond))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Reading.TemperatureTenths != 206 {
		t.Errorf("expected 206, got %d", events[0].Reading.TemperatureTenths)
	}
}

func TestZeroDedupEmitsEveryReading(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)

	for i := 0; i < 3; i++ {
		if events := m.Process(kitchen, now); len(events) != 1 {
			t.Errorf("reading %d: expected 1 event, got %d", i, len(events))
		}
	}
}

func TestInvalidChannelDropped(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	bad := kitchen
	bad.Channel = nexus.InvalidChannel
	if events := m.Process(bad, now); len(events) != 0 {
		t.Errorf("expected no events for channel 3, got %d", len(events))
	}
	if m.Counts().Invalid != 1 {
		t.Errorf("expected 1 invalid, got %d", m.Counts().Invalid)
	}
	if len(m.Sensors()) != 0 {
		t.Error("channel 3 readings must not create sensors")
	}
}

func TestSameIDDifferentChannelIsDifferentSensor(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	other := kitchen
	other.Channel = 2
	m.Process(kitchen, now)
	if events := m.Process(other, now); len(events) != 1 {
		t.Errorf("expected 1 event for other channel, got %d", len(events))
	}
	if len(m.Sensors()) != 2 {
		t.Errorf("expected 2 sensors, got %d", len(m.Sensors()))
	}
}

func TestSensorsSorted(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)

	second := kitchen
	second.Channel = 2
	m.Process(garage, now)
	m.Process(second, now)
	m.Process(kitchen, now)

	sensors := m.Sensors()
	want := []SensorKey{{0x12, 0}, {0x12, 2}, {0x9C, 1}}
	if len(sensors) != len(want) {
		t.Fatalf("expected %d sensors, got %d", len(want), len(sensors))
	}
	for i, k := range want {
		if sensors[i].Key != k {
			t.Errorf("sensor %d: expected %v, got %v", i, k, sensors[i].Key)
		}
	}
}

func TestSensorStateTracking(t *testing.T) {
	now := startTime()
	m := NewMonitor(2*time.Second, 0, now)

	m.Process(kitchen, now)
	m.Process(kitchen, now.Add(time.Second))
	m.Process(kitchen, now.Add(time.Minute))

	s := m.Sensors()[0]
	if !s.FirstSeen.Equal(now) {
		t.Errorf("FirstSeen: got %v", s.FirstSeen)
	}
	if !s.LastSeen.Equal(now.Add(time.Minute)) {
		t.Errorf("LastSeen: got %v", s.LastSeen)
	}
	if s.Readings != 2 {
		t.Errorf("Readings: expected 2, got %d", s.Readings)
	}
	if s.Last != kitchen {
		t.Errorf("Last: got %v", s.Last)
	}
}

func TestSensorsReturnsCopy(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)
	m.Process(kitchen, now)

	m.Sensors()[0].Readings = 100
	if m.Sensors()[0].Readings != 1 {
		t.Error("Sensors must return a copy")
	}
}

func TestExpireDisabled(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)
	m.Process(kitchen, now)

	if events := m.Expire(now.Add(24 * time.Hour)); len(events) != 0 {
		t.Errorf("expected no events with staleAfter=0, got %d", len(events))
	}
}

func TestExpireReportsOnce(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 5*time.Minute, now)
	m.Process(kitchen, now)
	m.Process(garage, now.Add(3*time.Minute))

	if events := m.Expire(now.Add(4 * time.Minute)); len(events) != 0 {
		t.Errorf("expected no events before staleAfter, got %d", len(events))
	}

	events := m.Expire(now.Add(5 * time.Minute))
	if len(events) != 1 {
		t.Fatalf("expected 1 STALE event, got %d", len(events))
	}
	if events[0].Type != EventStale || events[0].Sensor != KeyOf(kitchen) {
		t.Errorf("unexpected event %+v", events[0])
	}
	if events[0].Reading != kitchen {
		t.Errorf("STALE should carry the last reading, got %v", events[0].Reading)
	}

	if events := m.Expire(now.Add(6 * time.Minute)); len(events) != 0 {
		t.Errorf("stale sensor reported twice: %d events", len(events))
	}

	events = m.Expire(now.Add(8 * time.Minute))
	if len(events) != 1 || events[0].Sensor != KeyOf(garage) {
		t.Errorf("expected garage to go stale, got %+v", events)
	}
	if m.Counts().Stale != 2 {
		t.Errorf("expected 2 stale, got %d", m.Counts().Stale)
	}
}

func TestStaleSensorRecovers(t *testing.T) {
	now := startTime()
	m := NewMonitor(time.Hour, 5*time.Minute, now)
	m.Process(kitchen, now)
	m.Expire(now.Add(5 * time.Minute))

	// Identical reading, inside dedup, still emitted after going stale.
	events := m.Process(kitchen, now.Add(6*time.Minute))
	if len(events) != 1 || events[0].Type != EventReading {
		t.Fatalf("expected READING after recovery, got %+v", events)
	}
	if m.Sensors()[0].Stale {
		t.Error("sensor should no longer be stale")
	}
}

func TestSensorKeyString(t *testing.T) {
	if got := (SensorKey{ID: 0x0A, Channel: 2}).String(); got != "0x0a/3" {
		t.Errorf("got %q, want 0x0a/3", got)
	}
}

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)

	if hb := m.CheckHeartbeat(now.Add(time.Hour), 0); hb != nil {
		t.Error("expected nil heartbeat with zero interval")
	}
	if hb := m.CheckHeartbeat(now.Add(time.Hour), -time.Second); hb != nil {
		t.Error("expected nil heartbeat with negative interval")
	}
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)

	if hb := m.CheckHeartbeat(now.Add(59*time.Second), time.Minute); hb != nil {
		t.Error("expected nil heartbeat before interval elapsed")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)
	m.Process(kitchen, now)
	m.Process(garage, now)

	hb := m.CheckHeartbeat(now.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("expected uptime 1m, got %v", hb.Uptime)
	}
	if hb.Sensors != 2 {
		t.Errorf("expected 2 sensors, got %d", hb.Sensors)
	}
	if hb.Counts.Readings != 2 {
		t.Errorf("expected 2 readings, got %d", hb.Counts.Readings)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	now := startTime()
	m := NewMonitor(0, 0, now)

	if hb := m.CheckHeartbeat(now.Add(time.Minute), time.Minute); hb == nil {
		t.Fatal("expected first heartbeat")
	}
	if hb := m.CheckHeartbeat(now.Add(90*time.Second), time.Minute); hb != nil {
		t.Error("expected nil heartbeat 30s after the last one")
	}
	hb := m.CheckHeartbeat(now.Add(2*time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 2*time.Minute {
		t.Errorf("expected uptime 2m, got %v", hb.Uptime)
	}
}
