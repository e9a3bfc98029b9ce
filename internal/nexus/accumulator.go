package nexus

type accState uint8

const (
	waitSync accState = iota
	receiving
	complete
)

// accumulator shifts classified bits into a 36-bit register.
type accumulator struct {
	reg   uint64
	count uint8
	state accState
}

// result of feeding one symbol to the accumulator.
type accResult uint8

const (
	accNone accResult = iota
	accFrame
	accOverrun
)

// push applies one symbol. A frame is returned when the 36th bit arrives.
// After a completed frame any further bit before the next Sync is an
// overrun and is discarded.
func (a *accumulator) push(s Symbol) (Frame, accResult) {
	switch s {
	case Sync:
		a.reg = 0
		a.count = 0
		a.state = receiving
		return 0, accNone
	case Bit0, Bit1:
	default:
		return 0, accNone
	}

	switch a.state {
	case waitSync:
		return 0, accNone
	case complete:
		a.reg = 0
		a.count = 0
		a.state = waitSync
		return 0, accOverrun
	}

	a.reg <<= 1
	if s == Bit1 {
		a.reg |= 1
	}
	a.count++

	if a.count < FrameBits {
		return 0, accNone
	}

	f := Frame(a.reg) & frameMask
	a.count = 0
	a.state = complete
	return f, accFrame
}
