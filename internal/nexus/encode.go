package nexus

// Nominal falling-edge intervals of a Nexus transmitter: a ~500µs pulse
// followed by a 1000µs, 2000µs or 4000µs gap.
const (
	SyncMicros  = 4500
	Bit0Micros  = 1500 + 500
	Bit1Micros  = 2500 + 500
	BurstFrames = 12
)

// FlagsFor builds the flags nibble for a channel and battery state.
func FlagsFor(channel uint8, batteryOK bool) uint8 {
	f := channel & channelMask
	if batteryOK {
		f |= batteryBit
	}
	return f
}

// Encode builds the frame a sensor would transmit for r.
func Encode(r Reading) Frame {
	f := Frame(r.ID)<<idShift |
		Frame(FlagsFor(r.Channel, r.BatteryOK))<<flagsShift |
		Frame(uint16(r.TemperatureTenths)&0xFFF)<<tempShift |
		Frame(ConstNibble)<<constShift |
		Frame(r.Humidity)<<humShift
	return f & frameMask
}

// AppendFrameEdges appends the edge timestamps of one sync-prefixed frame
// following an edge at start, and returns the extended slice and the time of
// the last edge.
func AppendFrameEdges(dst []uint32, start uint32, f Frame) ([]uint32, uint32) {
	t := start + SyncMicros
	dst = append(dst, t)
	for i := FrameBits - 1; i >= 0; i-- {
		if f>>uint(i)&1 == 1 {
			t += Bit1Micros
		} else {
			t += Bit0Micros
		}
		dst = append(dst, t)
	}
	return dst, t
}

// BurstEdges returns a priming edge at start followed by repeats copies of f,
// each preceded by a sync interval.
func BurstEdges(start uint32, f Frame, repeats int) []uint32 {
	edges := make([]uint32, 0, 1+repeats*(FrameBits+1))
	edges = append(edges, start)
	t := start
	for i := 0; i < repeats; i++ {
		edges, t = AppendFrameEdges(edges, t, f)
	}
	return edges
}
