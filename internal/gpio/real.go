//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/nexus-receiver/internal/nexus"
)

// RealWatcher watches a receiver data line through the GPIO character device.
type RealWatcher struct {
	chip *gpiocdev.Chip
	pin  int

	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewRealWatcher opens the named chip for watching pin.
func NewRealWatcher(chipName string, pin int) (*RealWatcher, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("nexus-receiver"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &RealWatcher{chip: chip, pin: pin}, nil
}

// Watch requests the line as a pulled-up input with falling edge detection.
// The kernel timestamps each edge; the handler receives that timestamp, not
// the time the event was read.
func (w *RealWatcher) Watch(h EdgeHandler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.line != nil {
		return errors.New("gpio: already watching")
	}

	handler := func(evt gpiocdev.LineEvent) {
		h(nexus.Micros(evt.Timestamp))
	}

	line, err := w.chip.RequestLine(w.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", w.pin, err)
	}
	w.line = line
	return nil
}

// Close releases the line and the chip.
// Closing the line waits for a running event handler to return, so Close
// must not be called from the handler.
func (w *RealWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.line != nil {
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", w.pin, err))
		}
		w.line = nil
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
