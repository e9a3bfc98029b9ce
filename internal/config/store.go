package config

import (
	"fmt"
	"sync"
)

// Store holds the current configuration and persists every change to path.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// NewStore wraps cfg, persisted at path.
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Path returns the file the store writes to.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Update applies fn to a copy of the configuration, validates the result
// and saves it. The stored configuration is unchanged if any step fails.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := Save(s.path, next); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	s.cfg = next
	return nil
}

// Reset restores and saves the defaults.
func (s *Store) Reset() error {
	return s.Update(func(c *Config) error {
		*c = Default()
		return nil
	})
}

func (c Config) clone() Config {
	c.Simulate.Sensors = append([]SimSensor(nil), c.Simulate.Sensors...)
	return c
}
