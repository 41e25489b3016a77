package config

import (
	"sync"

	"predictive-sim/internal/telemetry"
)

// Settings is the mutable "current settings" cell shared by the UI surfaces.
// Every generation run reads one Snapshot; later updates never reach it.
type Settings struct {
	mu  sync.RWMutex
	cfg telemetry.Config
}

// NewSettings creates a cell holding cfg.
func NewSettings(cfg telemetry.Config) *Settings {
	return &Settings{cfg: cfg}
}

// Snapshot returns a copy of the current config.
func (s *Settings) Snapshot() telemetry.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Thresholds returns the current thresholds.
func (s *Settings) Thresholds() telemetry.Thresholds {
	return s.Snapshot().Thresholds
}

// SetThresholds replaces the thresholds if the resulting config is valid.
func (s *Settings) SetThresholds(th telemetry.Thresholds) error {
	return s.Update(func(c *telemetry.Config) { c.Thresholds = th })
}

// Update applies fn to a copy of the config and stores it only if it validates.
func (s *Settings) Update(fn func(*telemetry.Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cfg
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.cfg = next
	return nil
}
