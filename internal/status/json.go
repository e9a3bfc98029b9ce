package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/nexus-receiver/internal/nexus"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Sensors       []SensorJSON `json:"sensors"`
	Counts        CountsJSON   `json:"event_counts"`
	Decoder       nexus.Stats  `json:"decoder"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// SensorJSON is the JSON representation of one sensor. The channel is
// 1-based, as printed on the sensor.
type SensorJSON struct {
	ID           int     `json:"id"`
	Channel      int     `json:"channel"`
	BatteryOK    bool    `json:"battery_ok"`
	TemperatureC float64 `json:"temperature_C"`
	Humidity     int     `json:"humidity"`
	LastSeen     string  `json:"last_seen"`
	AgeSeconds   int64   `json:"age_seconds"`
	Readings     int     `json:"readings"`
	Stale        bool    `json:"stale"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Readings   int `json:"readings"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Stale      int `json:"stale"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	StaleAfterMs int64  `json:"stale_after_ms"`
	DedupMs      int64  `json:"dedup_ms"`
	Broker       string `json:"broker"`
	Topic        string `json:"topic"`
	HTTPAddr     string `json:"http_addr"`
	Chip         string `json:"gpio_chip"`
	Pin          int    `json:"gpio_pin"`
	Simulate     bool   `json:"simulate,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	sensors := make([]SensorJSON, len(snap.Sensors))
	for i, s := range snap.Sensors {
		sensors[i] = SensorJSON{
			ID:           int(s.Key.ID),
			Channel:      int(s.Key.Channel) + 1,
			BatteryOK:    s.Last.BatteryOK,
			TemperatureC: s.Last.Celsius(),
			Humidity:     int(s.Last.Humidity),
			LastSeen:     s.LastSeen.UTC().Format(time.RFC3339),
			AgeSeconds:   int64(snap.Now.Sub(s.LastSeen).Seconds()),
			Readings:     s.Readings,
			Stale:        s.Stale,
		}
	}

	cfg := snap.Config
	return StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: cfg.Broker},
		Sensors:       sensors,
		Counts: CountsJSON{
			Readings:   snap.Counts.Readings,
			Duplicates: snap.Counts.Duplicates,
			Invalid:    snap.Counts.Invalid,
			Stale:      snap.Counts.Stale,
		},
		Decoder: snap.Decoder,
		Config: ConfigJSON{
			PollMs:       cfg.PollMs,
			HeartbeatMs:  cfg.HeartbeatMs,
			StaleAfterMs: cfg.StaleAfterMs,
			DedupMs:      cfg.DedupMs,
			Broker:       cfg.Broker,
			Topic:        cfg.Topic,
			HTTPAddr:     cfg.HTTPAddr,
			Chip:         cfg.Chip,
			Pin:          cfg.Pin,
			Simulate:     cfg.Simulate,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
