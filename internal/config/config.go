// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"predictive-sim/internal/telemetry"
)

// ThresholdConfig holds the failure cutoffs.
type ThresholdConfig struct {
	Temperature float64 `yaml:"temperature"`
	Vibration   float64 `yaml:"vibration"`
	Load        float64 `yaml:"load"`
}

// ModelConfig configures the random forest trainer.
type ModelConfig struct {
	Enabled            bool    `yaml:"enabled"`
	Trees              int     `yaml:"trees"`
	MaxDepth           int     `yaml:"max_depth"`
	MinSamplesSplit    int     `yaml:"min_samples_split"`
	MinSamplesLeaf     int     `yaml:"min_samples_leaf"`
	TestFraction       float64 `yaml:"test_fraction"`
	ValidationFraction float64 `yaml:"validation_fraction"`
	CVFolds            int     `yaml:"cv_folds"`
	Seed               int64   `yaml:"seed"`
}

// Validate checks the trainer settings so a loaded config cannot fail every
// training run.
func (m ModelConfig) Validate() error {
	switch {
	case m.Trees < 1:
		return &telemetry.ConfigError{Field: "model.trees", Reason: fmt.Sprintf("must be > 0, got %d", m.Trees)}
	case m.MaxDepth < 1:
		return &telemetry.ConfigError{Field: "model.max_depth", Reason: fmt.Sprintf("must be > 0, got %d", m.MaxDepth)}
	case m.MinSamplesSplit < 2:
		return &telemetry.ConfigError{Field: "model.min_samples_split", Reason: fmt.Sprintf("must be >= 2, got %d", m.MinSamplesSplit)}
	case m.MinSamplesLeaf < 1:
		return &telemetry.ConfigError{Field: "model.min_samples_leaf", Reason: fmt.Sprintf("must be >= 1, got %d", m.MinSamplesLeaf)}
	case m.TestFraction <= 0 || m.TestFraction >= 1:
		return &telemetry.ConfigError{Field: "model.test_fraction", Reason: fmt.Sprintf("must be in (0,1), got %v", m.TestFraction)}
	case m.ValidationFraction < 0 || m.TestFraction+m.ValidationFraction >= 1:
		return &telemetry.ConfigError{Field: "model.validation_fraction", Reason: fmt.Sprintf("%v leaves no training rows", m.ValidationFraction)}
	case m.CVFolds < 0:
		return &telemetry.ConfigError{Field: "model.cv_folds", Reason: fmt.Sprintf("must be >= 0, got %d", m.CVFolds)}
	}
	return nil
}

// ReportConfig configures report export.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// StorageConfig selects an optional SQL sink.
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// SimulationConfig is the root configuration file.
type SimulationConfig struct {
	MachineID   string          `yaml:"machine_id"`
	SampleCount int             `yaml:"sample_count"`
	Seed        *int64          `yaml:"seed,omitempty"`
	Policy      string          `yaml:"policy"`
	FeatureSet  string          `yaml:"feature_set"`
	NoiseStdDev float64         `yaml:"noise_stddev"`
	Thresholds  ThresholdConfig `yaml:"thresholds"`
	Model       ModelConfig     `yaml:"model"`
	Report      ReportConfig    `yaml:"report"`
	Storage     StorageConfig   `yaml:"storage,omitempty"`
	Logging     LoggingConfig   `yaml:"logging"`
	Admin       AdminConfig     `yaml:"admin"`
}

// Default returns the built-in configuration.
func Default() *SimulationConfig {
	th := telemetry.DefaultThresholds()
	return &SimulationConfig{
		MachineID:   "machine-01",
		SampleCount: telemetry.DefaultSampleCount,
		Policy:      telemetry.PolicySimple,
		FeatureSet:  string(telemetry.FeaturesFull),
		Thresholds:  ThresholdConfig{Temperature: th.Temperature, Vibration: th.Vibration, Load: th.Load},
		Model: ModelConfig{
			Enabled:         true,
			Trees:           100,
			MaxDepth:        10,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			TestFraction:    0.2,
			Seed:            42,
		},
		Report:  ReportConfig{OutputDir: "."},
		Logging: LoggingConfig{Level: "info"},
		Admin:   AdminConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config on top of the defaults. When cueSchemaPath is not
// empty the file is validated against the schema first.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Telemetry().Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loaded configuration", "path", configPath, "machine_id", cfg.MachineID, "policy", cfg.Policy)
	return cfg, nil
}

func (c *SimulationConfig) applyEnv() {
	if v := os.Getenv("MACHINE_ID"); v != "" {
		c.MachineID = v
	}
}

// Telemetry converts the file config into a generation snapshot.
func (c *SimulationConfig) Telemetry() telemetry.Config {
	tc := telemetry.Config{
		SampleCount: c.SampleCount,
		Thresholds: telemetry.Thresholds{
			Temperature: c.Thresholds.Temperature,
			Vibration:   c.Thresholds.Vibration,
			Load:        c.Thresholds.Load,
		},
		Policy:      c.Policy,
		Features:    telemetry.FeatureSet(c.FeatureSet),
		NoiseStdDev: c.NoiseStdDev,
	}
	if c.Seed != nil {
		tc = tc.WithSeed(*c.Seed)
	}
	return tc
}

// SetThresholds stores th in the file config.
func (c *SimulationConfig) SetThresholds(th telemetry.Thresholds) {
	c.Thresholds = ThresholdConfig{Temperature: th.Temperature, Vibration: th.Vibration, Load: th.Load}
}

// Save writes the config as YAML to path.
func Save(path string, cfg *SimulationConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}
