package telemetry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned when a Config cannot be used for generation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError describes which field of a Config is invalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

// Default generation parameters.
const (
	DefaultSampleCount          = 1000
	DefaultTemperatureThreshold = 80.0
	DefaultVibrationThreshold   = 50.0
	DefaultLoadThreshold        = 90.0
)

// Thresholds are the failure cutoffs evaluated by a labelling policy.
type Thresholds struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Vibration   float64 `json:"vibration" yaml:"vibration"`
	Load        float64 `json:"load" yaml:"load"`
}

// DefaultThresholds returns 80 / 50 / 90.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Temperature: DefaultTemperatureThreshold,
		Vibration:   DefaultVibrationThreshold,
		Load:        DefaultLoadThreshold,
	}
}

// FeatureSet selects which channels a classifier consumes.
type FeatureSet string

const (
	// FeaturesFull uses all six channels.
	FeaturesFull FeatureSet = "full"
	// FeaturesCore uses temperature and vibration only.
	FeaturesCore FeatureSet = "core"
)

// Channels returns the channel names of the feature set.
func (f FeatureSet) Channels() ([]string, error) {
	switch f {
	case FeaturesFull, "":
		return append([]string(nil), Channels...), nil
	case FeaturesCore:
		return []string{ColTemperature, ColVibration}, nil
	}
	return nil, &ConfigError{Field: "feature_set", Reason: fmt.Sprintf("unknown value %q", string(f))}
}

// Config is an immutable snapshot of everything one generation run needs.
// It is passed by value; callers that keep a mutable copy must not share it
// with a running generation.
type Config struct {
	SampleCount int
	Thresholds  Thresholds
	Seed        int64
	Seeded      bool
	Policy      string
	// Label overrides Policy when set.
	Label       LabelFunc
	Features    FeatureSet
	NoiseStdDev float64
}

// DefaultConfig returns the defaults used by the dashboard.
func DefaultConfig() Config {
	return Config{
		SampleCount: DefaultSampleCount,
		Thresholds:  DefaultThresholds(),
		Policy:      PolicySimple,
		Features:    FeaturesFull,
	}
}

// WithSeed returns a copy of c seeded with seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = seed
	c.Seeded = true
	return c
}

// PolicyName returns the name reported for the active labelling rule.
func (c Config) PolicyName() string {
	if c.Label != nil {
		return "custom"
	}
	if c.Policy == "" {
		return PolicySimple
	}
	return c.Policy
}

// Validate checks the config without consuming any randomness.
func (c Config) Validate() error {
	if c.SampleCount < 0 {
		return &ConfigError{Field: "sample_count", Reason: fmt.Sprintf("must be >= 0, got %d", c.SampleCount)}
	}
	checks := []struct {
		field string
		v     float64
	}{
		{"thresholds.temperature", c.Thresholds.Temperature},
		{"thresholds.vibration", c.Thresholds.Vibration},
		{"thresholds.load", c.Thresholds.Load},
		{"noise_stddev", c.NoiseStdDev},
	}
	for _, ck := range checks {
		if math.IsNaN(ck.v) || math.IsInf(ck.v, 0) {
			return &ConfigError{Field: ck.field, Reason: "must be finite"}
		}
	}
	if c.NoiseStdDev < 0 {
		return &ConfigError{Field: "noise_stddev", Reason: "must be >= 0"}
	}
	if _, err := c.Features.Channels(); err != nil {
		return err
	}
	if _, err := c.labelFunc(); err != nil {
		return err
	}
	return nil
}

func (c Config) labelFunc() (LabelFunc, error) {
	if c.Label != nil {
		return c.Label, nil
	}
	return LookupPolicy(c.PolicyName())
}
