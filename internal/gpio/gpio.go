// Package gpio delivers falling-edge timestamps from the 433MHz receiver's
// data line. The real implementation uses the Linux GPIO character device.
// The fake and simulated implementations allow running without hardware.
package gpio

// EdgeHandler is called once per falling edge with the edge time in
// microseconds on a wrapping 32-bit counter. It runs on the watcher's event
// goroutine and must return quickly.
type EdgeHandler func(micros uint32)

// Watcher delivers edge events to a handler.
type Watcher interface {
	// Watch starts delivering edges to h. It may only be called once.
	Watch(h EdgeHandler) error

	// Close stops delivery and releases resources.
	Close() error
}

// Defaults for a receiver module on a Raspberry Pi (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 27
)
