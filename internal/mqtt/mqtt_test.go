package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/nexus-receiver/internal/logic"
	"github.com/sweeney/nexus-receiver/internal/nexus"
)

func readingEvent() logic.Event {
	r := nexus.Reading{ID: 0x12, Channel: 1, BatteryOK: true, TemperatureTenths: 215, Humidity: 48}
	return logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventReading,
		Sensor:    logic.KeyOf(r),
		Reading:   r,
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(readingEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Time != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected time: %s", parsed.Time)
	}
	if parsed.Model != "Nexus-TH" {
		t.Errorf("unexpected model: %s", parsed.Model)
	}
	if parsed.Event != "READING" {
		t.Errorf("unexpected event: %s", parsed.Event)
	}
	if parsed.ID != 0x12 {
		t.Errorf("unexpected id: %d", parsed.ID)
	}
	if parsed.Channel != 2 {
		t.Errorf("expected 1-based channel 2, got %d", parsed.Channel)
	}
	if parsed.BatteryOK != 1 {
		t.Errorf("unexpected battery_ok: %d", parsed.BatteryOK)
	}
	if parsed.TemperatureC != 21.5 {
		t.Errorf("unexpected temperature: %v", parsed.TemperatureC)
	}
	if parsed.Humidity != 48 {
		t.Errorf("unexpected humidity: %d", parsed.Humidity)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	payload, err := FormatPayload(readingEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"time":"2026-02-02T22:18:12Z","model":"Nexus-TH","event":"READING","id":18,"channel":2,"battery_ok":1,"temperature_C":21.5,"humidity":48}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadStaleLowBatteryNegative(t *testing.T) {
	event := readingEvent()
	event.Type = logic.EventStale
	event.Reading.BatteryOK = false
	event.Reading.TemperatureTenths = -75

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Event != "STALE" {
		t.Errorf("unexpected event: %s", parsed.Event)
	}
	if parsed.BatteryOK != 0 {
		t.Errorf("expected battery_ok 0, got %d", parsed.BatteryOK)
	}
	if parsed.TemperatureC != -7.5 {
		t.Errorf("expected -7.5, got %v", parsed.TemperatureC)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	event := readingEvent()
	event.Timestamp = time.Date(2026, 2, 3, 3, 18, 12, 0, loc)

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Time != "2026-02-02T22:18:12Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Time)
	}
}

func TestTopics(t *testing.T) {
	if got := EventsTopic(DefaultBaseTopic); got != "home/nexus/events" {
		t.Errorf("unexpected events topic: %s", got)
	}
	if got := SystemTopic("garden/th"); got != "garden/th/system" {
		t.Errorf("unexpected system topic: %s", got)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	system := parsed["system"].(map[string]interface{})
	if _, exists := system["reason"]; exists {
		t.Error("RECONNECTED should not have reason field")
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":"ok"}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload := WillPayload(time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC))

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"OFFLINE","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestClientIDUnique(t *testing.T) {
	a := ClientID("nexus")
	b := ClientID("nexus")
	if a == b {
		t.Errorf("expected unique client ids, got %s twice", a)
	}
	if len(a) != len("nexus-")+8 || a[:6] != "nexus-" {
		t.Errorf("unexpected client id format: %s", a)
	}
	if got := ClientID(""); got[:len("nexus-receiver-")] != "nexus-receiver-" {
		t.Errorf("expected default prefix, got %s", got)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(readingEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Reading.ID != 0x12 {
		t.Errorf("unexpected event: %+v", f.Events[0])
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
	if f.EventCount() != 1 {
		t.Errorf("EventCount: expected 1, got %d", f.EventCount())
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(readingEvent()); err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 {
		t.Error("events should not be recorded on error")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"})

	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "HEARTBEAT" {
		t.Errorf("unexpected system events: %v", names)
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flags not recorded")
	}
	if len(f.SystemPayloads) != 2 {
		t.Errorf("expected 2 system payloads, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Error("system events should not be recorded on error")
	}
}

func TestFakePublisherCloseAndReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.Publish(readingEvent())
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()

	if !f.Closed {
		t.Error("should be closed")
	}
	if !f.IsConnected() {
		t.Error("IsConnected should reflect Connected")
	}

	f.Reset()
	if f.Closed || f.Connected || len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Errorf("Reset left state behind: %+v", f)
	}
}

var _ Publisher = (*FakePublisher)(nil)
var _ ConnectionStatus = (*FakePublisher)(nil)
var _ Publisher = (*RealPublisher)(nil)
var _ ConnectionStatus = (*RealPublisher)(nil)
