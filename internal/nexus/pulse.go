package nexus

// Symbol is the classification of one edge-to-edge interval.
type Symbol uint8

const (
	Noise Symbol = iota
	Sync
	Bit0
	Bit1
)

// Interval boundaries in microseconds between consecutive falling edges.
const (
	SyncMinMicros  = 3600
	ShortMinMicros = 1400
	LongMinMicros  = 2400
)

func (s Symbol) String() string {
	switch s {
	case Sync:
		return "SYNC"
	case Bit0:
		return "BIT0"
	case Bit1:
		return "BIT1"
	default:
		return "NOISE"
	}
}

// Delta returns the interval between two counter readings. Unsigned
// subtraction keeps the result correct across a counter wrap.
func Delta(prev, cur uint32) uint32 {
	return cur - prev
}

// Classify maps an interval to a symbol.
//
//	delta >= 3600          Sync
//	1400 <= delta < 2400   Bit0 (short)
//	2400 <= delta < 3600   Bit1 (long)
//	anything else          Noise
func Classify(delta uint32) Symbol {
	switch {
	case delta >= SyncMinMicros:
		return Sync
	case delta >= LongMinMicros:
		return Bit1
	case delta >= ShortMinMicros:
		return Bit0
	default:
		return Noise
	}
}
