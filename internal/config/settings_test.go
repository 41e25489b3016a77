package config

import (
	"errors"
	"math"
	"testing"

	"predictive-sim/internal/telemetry"
)

func TestSettingsSnapshotIsolation(t *testing.T) {
	s := NewSettings(telemetry.DefaultConfig())
	snap := s.Snapshot()
	if err := s.SetThresholds(telemetry.Thresholds{Temperature: 60, Vibration: 40, Load: 70}); err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}
	if snap.Thresholds.Temperature != 80 {
		t.Fatalf("snapshot changed after update: %+v", snap.Thresholds)
	}
	if s.Thresholds().Temperature != 60 {
		t.Fatalf("update not stored: %+v", s.Thresholds())
	}
}

func TestSettingsRejectsInvalid(t *testing.T) {
	s := NewSettings(telemetry.DefaultConfig())
	err := s.SetThresholds(telemetry.Thresholds{Temperature: math.NaN(), Vibration: 50, Load: 90})
	if !errors.Is(err, telemetry.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if s.Thresholds().Temperature != 80 {
		t.Fatalf("invalid update was stored")
	}
	if err := s.Update(func(c *telemetry.Config) { c.SampleCount = -1 }); err == nil {
		t.Fatalf("expected error for negative sample count")
	}
}
