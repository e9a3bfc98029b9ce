package gpio

import (
	"errors"
	"sync"
	"time"

	"github.com/sweeney/nexus-receiver/internal/nexus"
)

// SimWatcher transmits synthetic sensor bursts, for running the receiver
// on a host without a radio module. Each period it sends one burst of
// nexus.BurstFrames frames per reading, spread evenly across the period so
// a consumer polling the decoder sees every sensor.
type SimWatcher struct {
	clock    nexus.Clock
	period   time.Duration
	readings []nexus.Reading

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup

	last uint32
}

// NewSimWatcher creates a simulator sending readings every period.
func NewSimWatcher(clock nexus.Clock, period time.Duration, readings ...nexus.Reading) *SimWatcher {
	return &SimWatcher{
		clock:    clock,
		period:   period,
		readings: readings,
		stop:     make(chan struct{}),
	}
}

// Spacing is the interval between consecutive bursts.
func (s *SimWatcher) Spacing() time.Duration {
	if n := len(s.readings); n > 1 {
		return s.period / time.Duration(n)
	}
	return s.period
}

// Watch starts transmitting. The first burst is sent immediately.
func (s *SimWatcher) Watch(h EdgeHandler) error {
	if s.Spacing() <= 0 {
		return errors.New("gpio: simulator period must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("gpio: already watching")
	}
	s.started = true

	s.wg.Add(1)
	go s.run(h)
	return nil
}

func (s *SimWatcher) run(h EdgeHandler) {
	defer s.wg.Done()

	if len(s.readings) == 0 {
		<-s.stop
		return
	}

	ticker := time.NewTicker(s.Spacing())
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(s.readings) {
		s.transmit(h, s.readings[i])
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// transmit sends one burst. Burst timestamps are synthetic, starting no
// earlier than the clock's current value and never before the previous
// burst ended.
func (s *SimWatcher) transmit(h EdgeHandler, r nexus.Reading) {
	start := s.clock.Micros()
	if int32(start-s.last) < nexus.SyncMicros {
		start = s.last + nexus.SyncMicros
	}
	edges := nexus.BurstEdges(start, nexus.Encode(r), nexus.BurstFrames)
	for _, ts := range edges {
		h(ts)
	}
	s.last = edges[len(edges)-1]
}

// Close stops the transmitter and waits for it to exit.
func (s *SimWatcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.wg.Wait()
	return nil
}
