package nexus

import "sync/atomic"

// Stats is a point-in-time copy of the decoder counters.
type Stats struct {
	Edges           uint64 `json:"edges"`
	Syncs           uint64 `json:"syncs"`
	Noise           uint64 `json:"noise"`
	Frames          uint64 `json:"frames"`
	Overruns        uint64 `json:"overruns"`
	Mismatches      uint64 `json:"frame_mismatches"`
	ConstMismatches uint64 `json:"const_mismatches"`
	Accepted        uint64 `json:"accepted"`
}

// counters are written by the producer and read by anyone.
type counters struct {
	edges           atomic.Uint64
	syncs           atomic.Uint64
	noise           atomic.Uint64
	frames          atomic.Uint64
	overruns        atomic.Uint64
	mismatches      atomic.Uint64
	constMismatches atomic.Uint64
	accepted        atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Edges:           c.edges.Load(),
		Syncs:           c.syncs.Load(),
		Noise:           c.noise.Load(),
		Frames:          c.frames.Load(),
		Overruns:        c.overruns.Load(),
		Mismatches:      c.mismatches.Load(),
		ConstMismatches: c.constMismatches.Load(),
		Accepted:        c.accepted.Load(),
	}
}
