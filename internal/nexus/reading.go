package nexus

import "fmt"

// InvalidChannel is the reserved channel value.
const InvalidChannel = 3

// Temperatures the signed 12-bit field can carry, in degrees Celsius.
const (
	MinCelsius = -204.8
	MaxCelsius = 204.7
)

// Reading is one validated sensor sample.
type Reading struct {
	ID                uint8
	Channel           uint8 // 0..2 valid, 3 reserved
	BatteryOK         bool
	TemperatureTenths int16 // tenths of a degree Celsius
	Humidity          uint8 // percent, not clamped
}

// Extract slices a validated frame into its fields.
func Extract(f Frame) Reading {
	return Reading{
		ID:                f.ID(),
		Channel:           f.Channel(),
		BatteryOK:         f.BatteryOK(),
		TemperatureTenths: f.TemperatureTenths(),
		Humidity:          f.Humidity(),
	}
}

// Celsius returns the temperature in degrees Celsius.
func (r Reading) Celsius() float64 {
	return float64(r.TemperatureTenths) / 10
}

// ValidChannel reports whether the channel is one of the three a sensor can
// be switched to.
func (r Reading) ValidChannel() bool {
	return r.Channel < InvalidChannel
}

func (r Reading) String() string {
	battery := "ok"
	if !r.BatteryOK {
		battery = "low"
	}
	return fmt.Sprintf("id=0x%02x ch=%d battery=%s temp=%.1fC humidity=%d%%",
		r.ID, r.Channel+1, battery, r.Celsius(), r.Humidity)
}
