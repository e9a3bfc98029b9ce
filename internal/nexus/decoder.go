// Package nexus decodes the 433MHz PPM broadcasts of NC-7345 / Nexus-TH
// temperature and humidity sensors.
//
// A Decoder is fed one timestamp per falling edge of the receiver output.
// Edge intervals are classified into sync and data symbols, data bits are
// assembled into 36-bit frames, and every third completed frame the last
// three frames are validated. Readings that pass are published to a
// single-slot cell that a polling consumer drains with TryTake.
//
// Feed runs in the edge handler context: it never allocates, blocks, logs
// or panics, whatever the input sequence.
package nexus

// Decoder owns the per-edge decode state. Feed must be called from a single
// goroutine; TryTake and Stats are safe to call concurrently with it.
type Decoder struct {
	last   uint32
	primed bool
	acc    accumulator
	win    window

	cell  ReadingCell
	stats counters
}

// NewDecoder returns a decoder waiting for its first edge.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// HandleEdge feeds an edge stamped with the current value of clock.
func (d *Decoder) HandleEdge(clock Clock) {
	d.Feed(clock.Micros())
}

// Feed processes one falling edge seen at ts microseconds. The first edge
// only establishes the reference time.
func (d *Decoder) Feed(ts uint32) {
	d.stats.edges.Add(1)
	if !d.primed {
		d.last = ts
		d.primed = true
		return
	}

	sym := Classify(Delta(d.last, ts))
	d.last = ts

	switch sym {
	case Noise:
		d.stats.noise.Add(1)
		return
	case Sync:
		d.stats.syncs.Add(1)
	}

	f, res := d.acc.push(sym)
	switch res {
	case accOverrun:
		d.stats.overruns.Add(1)
	case accFrame:
		d.stats.frames.Add(1)
		if d.win.add(f) {
			d.validate()
		}
	}
}

func (d *Decoder) validate() {
	f, err := Validate(d.win.frames)
	switch err {
	case nil:
	case ErrFrameMismatch:
		d.stats.mismatches.Add(1)
		return
	default:
		d.stats.constMismatches.Add(1)
		return
	}

	d.stats.accepted.Add(1)
	d.cell.Publish(Extract(f))
}

// TryTake returns the latest validated reading once, or false if nothing new
// has been accepted since the previous call.
func (d *Decoder) TryTake() (Reading, bool) {
	return d.cell.TryTake()
}

// Stats returns the decoder counters.
func (d *Decoder) Stats() Stats {
	return d.stats.snapshot()
}
