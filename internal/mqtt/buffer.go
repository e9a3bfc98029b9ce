package mqtt

import "log/slog"

// queuedMsg is a serialized message held for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages published while the broker
// was unreachable. The oldest message is dropped when full. Callers
// synchronize access.
type ringBuffer struct {
	msgs    []queuedMsg
	head    int // next write position
	count   int
	dropped int // since the last drain
	logger  *slog.Logger
}

func newRingBuffer(capacity int, logger *slog.Logger) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ringBuffer{
		msgs:   make([]queuedMsg, capacity),
		logger: logger,
	}
}

func (r *ringBuffer) push(msg queuedMsg) {
	r.msgs[r.head] = msg
	r.head = (r.head + 1) % len(r.msgs)
	if r.count < len(r.msgs) {
		r.count++
		return
	}
	if r.dropped == 0 {
		r.logger.Warn("mqtt buffer full, dropping oldest", "capacity", len(r.msgs))
	}
	r.dropped++
}

// drain returns the queued messages oldest first and empties the buffer.
func (r *ringBuffer) drain() []queuedMsg {
	if r.count == 0 {
		return nil
	}

	out := make([]queuedMsg, r.count)
	start := (r.head - r.count + len(r.msgs)) % len(r.msgs)
	for i := range out {
		out[i] = r.msgs[(start+i)%len(r.msgs)]
	}

	if r.dropped > 0 {
		r.logger.Warn("mqtt messages lost while disconnected", "dropped", r.dropped)
	}
	r.count = 0
	r.head = 0
	r.dropped = 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
