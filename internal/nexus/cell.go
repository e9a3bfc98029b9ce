package nexus

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a non-blocking critical section for the edge handler path.
// Hold times are a handful of field copies.
type spinLock struct {
	v atomic.Uint32
}

func (l *spinLock) lock() {
	for !l.v.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

func (l *spinLock) unlock() {
	l.v.Store(0)
}

// ReadingCell holds the latest validated reading for one producer and one
// consumer. A reading published before it is taken is replaced.
type ReadingCell struct {
	mu      spinLock
	reading Reading
	fresh   bool
}

// Publish stores r and marks it fresh.
func (c *ReadingCell) Publish(r Reading) {
	c.mu.lock()
	c.reading = r
	c.fresh = true
	c.mu.unlock()
}

// TryTake returns the last published reading if it has not been taken yet.
func (c *ReadingCell) TryTake() (Reading, bool) {
	c.mu.lock()
	r, ok := c.reading, c.fresh
	c.fresh = false
	c.mu.unlock()
	if !ok {
		return Reading{}, false
	}
	return r, true
}
