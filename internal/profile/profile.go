package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"predictive-sim/internal/config"
)

// Profile is a named preset of generation parameters. Zero fields leave the
// base configuration untouched.
type Profile struct {
	Name        string                  `yaml:"name,omitempty"`
	Description string                  `yaml:"description,omitempty"`
	Policy      string                  `yaml:"policy,omitempty"`
	FeatureSet  string                  `yaml:"feature_set,omitempty"`
	SampleCount int                     `yaml:"sample_count,omitempty"`
	NoiseStdDev float64                 `yaml:"noise_stddev,omitempty"`
	Thresholds  *config.ThresholdConfig `yaml:"thresholds,omitempty"`
	Model       *ModelOverride          `yaml:"model,omitempty"`
}

// ModelOverride replaces trainer settings of the base config. Zero fields are
// left untouched.
type ModelOverride struct {
	Trees              int     `yaml:"trees,omitempty"`
	MaxDepth           int     `yaml:"max_depth,omitempty"`
	MinSamplesSplit    int     `yaml:"min_samples_split,omitempty"`
	MinSamplesLeaf     int     `yaml:"min_samples_leaf,omitempty"`
	TestFraction       float64 `yaml:"test_fraction,omitempty"`
	ValidationFraction float64 `yaml:"validation_fraction,omitempty"`
	CVFolds            int     `yaml:"cv_folds,omitempty"`
}

func (m *ModelOverride) apply(c *config.ModelConfig) {
	if m.Trees > 0 {
		c.Trees = m.Trees
	}
	if m.MaxDepth > 0 {
		c.MaxDepth = m.MaxDepth
	}
	if m.MinSamplesSplit > 0 {
		c.MinSamplesSplit = m.MinSamplesSplit
	}
	if m.MinSamplesLeaf > 0 {
		c.MinSamplesLeaf = m.MinSamplesLeaf
	}
	if m.TestFraction > 0 {
		c.TestFraction = m.TestFraction
	}
	if m.ValidationFraction > 0 {
		c.ValidationFraction = m.ValidationFraction
	}
	if m.CVFolds > 0 {
		c.CVFolds = m.CVFolds
	}
}

// Load reads a YAML profile definition from disk.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// Resolve returns the built-in profile called name, or loads name as a file
// path when no built-in matches.
func Resolve(name string) (*Profile, error) {
	if p, ok := BuiltIn()[name]; ok {
		return &p, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("unknown profile %q (built-in: %v)", name, Names())
	}
	return Load(name)
}

// Apply returns a copy of base with the profile's non-zero fields applied.
// The result is validated before it is returned.
func (p *Profile) Apply(base *config.SimulationConfig) (*config.SimulationConfig, error) {
	out := *base
	if p.Policy != "" {
		out.Policy = p.Policy
	}
	if p.FeatureSet != "" {
		out.FeatureSet = p.FeatureSet
	}
	if p.SampleCount > 0 {
		out.SampleCount = p.SampleCount
	}
	if p.NoiseStdDev > 0 {
		out.NoiseStdDev = p.NoiseStdDev
	}
	if p.Thresholds != nil {
		out.Thresholds = *p.Thresholds
	}
	if p.Model != nil {
		p.Model.apply(&out.Model)
	}
	if err := out.Telemetry().Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if err := out.Model.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return &out, nil
}

// Names lists the built-in profile keys in sorted order.
func Names() []string {
	b := BuiltIn()
	names := make([]string, 0, len(b))
	for n := range b {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
