// Package config loads and persists the receiver configuration as YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sweeney/nexus-receiver/internal/gpio"
	"github.com/sweeney/nexus-receiver/internal/logging"
	"github.com/sweeney/nexus-receiver/internal/nexus"
	"gopkg.in/yaml.v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration written as a Go duration string ("15m").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the receiver configuration.
type Config struct {
	GPIO       GPIOConfig     `yaml:"gpio"`
	MQTT       MQTTConfig     `yaml:"mqtt"`
	HTTP       HTTPConfig     `yaml:"http"`
	Poll       Duration       `yaml:"poll"`
	Heartbeat  Duration       `yaml:"heartbeat"`
	StaleAfter Duration       `yaml:"stale_after"`
	Dedup      Duration       `yaml:"dedup"`
	Log        LogConfig      `yaml:"log"`
	Simulate   SimulateConfig `yaml:"simulate"`
}

// GPIOConfig selects the receiver data line.
type GPIOConfig struct {
	Chip string `yaml:"chip"`
	Pin  int    `yaml:"pin"`
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// HTTPConfig configures the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SimulateConfig replaces the radio with synthetic transmitters.
type SimulateConfig struct {
	Enabled bool        `yaml:"enabled"`
	Period  Duration    `yaml:"period"`
	Sensors []SimSensor `yaml:"sensors"`
}

// SimSensor is one synthetic transmitter. Channel is 1-based as on the
// sensor's switch.
type SimSensor struct {
	ID          uint8   `yaml:"id"`
	Channel     int     `yaml:"channel"`
	Temperature float64 `yaml:"temperature"`
	Humidity    uint8   `yaml:"humidity"`
	LowBattery  bool    `yaml:"low_battery"`
}

// Default returns the configuration of an unconfigured receiver.
func Default() Config {
	return Config{
		GPIO: GPIOConfig{Chip: gpio.DefaultChip, Pin: gpio.DefaultPin},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "nexus-receiver",
			Topic:    "home/nexus",
		},
		HTTP:       HTTPConfig{Addr: ":8080"},
		Poll:       Duration(250 * time.Millisecond),
		Heartbeat:  Duration(15 * time.Minute),
		StaleAfter: Duration(10 * time.Minute),
		Dedup:      Duration(5 * time.Second),
		Log:        LogConfig{Level: "info", Format: "text"},
		Simulate: SimulateConfig{
			Period: Duration(time.Minute),
			Sensors: []SimSensor{
				{ID: 0x5A, Channel: 1, Temperature: 21.5, Humidity: 45},
			},
		},
	}
}

// Load reads the configuration at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, replacing the file atomically.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Validate checks that the configuration can be run.
func (c Config) Validate() error {
	var problems []string
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.GPIO.Chip == "" {
		fail("gpio.chip is empty")
	}
	if c.GPIO.Pin < 0 {
		fail("gpio.pin %d is negative", c.GPIO.Pin)
	}
	if !strings.Contains(c.MQTT.Broker, "://") {
		fail("mqtt.broker %q needs a scheme, e.g. tcp://host:1883", c.MQTT.Broker)
	}
	if c.MQTT.Topic == "" || strings.ContainsAny(c.MQTT.Topic, "#+") {
		fail("mqtt.topic %q must be a plain topic", c.MQTT.Topic)
	}
	if c.Poll <= 0 {
		fail("poll must be positive")
	}
	if c.Heartbeat < 0 || c.StaleAfter < 0 || c.Dedup < 0 {
		fail("heartbeat, stale_after and dedup must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		fail("log.%v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		fail("log.format %q is not text or json", c.Log.Format)
	}
	if c.Simulate.Enabled {
		if c.Simulate.Period <= 0 {
			fail("simulate.period must be positive")
		} else if n := len(c.Simulate.Sensors); n > 0 && c.Poll > 0 && c.Simulate.Period.Std()/time.Duration(n) < 2*c.Poll.Std() {
			fail("simulate.period %s leaves less than two polls between %d sensors", c.Simulate.Period.Std(), n)
		}
		for i, s := range c.Simulate.Sensors {
			if s.Channel < 1 || s.Channel > 3 {
				fail("simulate.sensors[%d].channel %d is not 1-3", i, s.Channel)
			}
			if s.Temperature < nexus.MinCelsius || s.Temperature > nexus.MaxCelsius {
				fail("simulate.sensors[%d].temperature %.1f out of range", i, s.Temperature)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Reading returns the reading the synthetic transmitter sends.
func (s SimSensor) Reading() nexus.Reading {
	return nexus.Reading{
		ID:                s.ID,
		Channel:           uint8(s.Channel - 1),
		BatteryOK:         !s.LowBattery,
		TemperatureTenths: int16(math.Round(s.Temperature * 10)),
		Humidity:          s.Humidity,
	}
}
