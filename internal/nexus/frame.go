package nexus

// Frame is one 36-bit sensor frame, MSB first:
//
//	Size (bits):  8     4      12      4         8
//	Field:      [ID] [Flags] [TEMP] [const] [Humidity]
//
// Flags are [B] 0 [C] [C]: battery (1 = OK) and a 2-bit channel.
// Only bits 0-35 are meaningful.
type Frame uint64

const (
	// FrameBits is the number of bits in a complete frame.
	FrameBits = 36
	// ConstNibble is the fixed value of the const field.
	ConstNibble = 0xF

	frameMask = Frame(1)<<FrameBits - 1
)

// Field offsets and widths.
const (
	idShift    = 28
	idWidth    = 8
	flagsShift = 24
	flagsWidth = 4
	tempShift  = 12
	tempWidth  = 12
	constShift = 8
	constWidth = 4
	humShift   = 0
	humWidth   = 8

	channelMask = 0x3
	batteryBit  = 0x8
)

// bits returns size bits of f starting at first.
func (f Frame) bits(first, size uint) uint64 {
	mask := uint64(1)<<size - 1
	return (uint64(f) >> first) & mask
}

// ID returns the sensor id, bits [28,36).
func (f Frame) ID() uint8 { return uint8(f.bits(idShift, idWidth)) }

// Flags returns the flags nibble, bits [24,28).
func (f Frame) Flags() uint8 { return uint8(f.bits(flagsShift, flagsWidth)) }

// Channel returns the 2-bit channel from the flags nibble. 0, 1 and 2 are
// valid; 3 is reserved.
func (f Frame) Channel() uint8 { return f.Flags() & channelMask }

// BatteryOK reports the battery flag (1 = OK, 0 = low).
func (f Frame) BatteryOK() bool { return f.Flags()&batteryBit != 0 }

// RawTemperature returns the unsigned 12-bit temperature field, bits [12,24).
func (f Frame) RawTemperature() uint16 { return uint16(f.bits(tempShift, tempWidth)) }

// TemperatureTenths returns the temperature field sign-extended from 12 to
// 16 bits, in tenths of a degree Celsius.
func (f Frame) TemperatureTenths() int16 {
	return int16(f.RawTemperature()<<4) >> 4
}

// Const returns the const nibble, bits [8,12).
func (f Frame) Const() uint8 { return uint8(f.bits(constShift, constWidth)) }

// Humidity returns the humidity percentage, bits [0,8).
func (f Frame) Humidity() uint8 { return uint8(f.bits(humShift, humWidth)) }
