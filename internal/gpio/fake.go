package gpio

import "errors"

// FakeWatcher is a test double that delivers scripted edge timestamps.
type FakeWatcher struct {
	// Edges contains scripted timestamps delivered by Replay.
	Edges []uint32

	// handler is set by Watch
	handler EdgeHandler

	// Closed tracks if Close was called
	Closed bool

	// WatchError, if set, will be returned by Watch()
	WatchError error
}

// NewFakeWatcher creates a FakeWatcher with the given edges.
func NewFakeWatcher(edges []uint32) *FakeWatcher {
	return &FakeWatcher{Edges: edges}
}

// Watch records the handler.
func (f *FakeWatcher) Watch(h EdgeHandler) error {
	if f.WatchError != nil {
		return f.WatchError
	}
	if f.handler != nil {
		return errors.New("gpio: already watching")
	}
	f.handler = h
	return nil
}

// Replay delivers every scripted edge to the handler, in order, on the
// calling goroutine. It returns the number of edges delivered.
func (f *FakeWatcher) Replay() int {
	if f.handler == nil || f.Closed {
		return 0
	}
	for _, ts := range f.Edges {
		f.handler(ts)
	}
	return len(f.Edges)
}

// Fire delivers the given edges to the handler.
func (f *FakeWatcher) Fire(edges ...uint32) {
	if f.handler == nil || f.Closed {
		return
	}
	for _, ts := range edges {
		f.handler(ts)
	}
}

// Close marks the watcher as closed; later edges are dropped.
func (f *FakeWatcher) Close() error {
	f.Closed = true
	return nil
}

// Reset clears the handler and the closed flag.
func (f *FakeWatcher) Reset() {
	f.handler = nil
	f.Closed = false
}
