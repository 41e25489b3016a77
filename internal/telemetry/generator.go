package telemetry

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Channel distributions.
const (
	temperatureMean   = 70.0
	temperatureStdDev = 5.0
	vibrationMean     = 30.0
	vibrationStdDev   = 10.0
	loadMin, loadMax  = 50.0, 100.0
	ambientMin        = 20.0
	ambientMax        = 40.0
	humidityMin       = 30.0
	humidityMax       = 80.0
	ageMin, ageMax    = 1.0, 10.0
)

// Generator simulates telemetry tables for one machine.
type Generator struct {
	MachineID string
	rand      *rand.Rand
	now       func() time.Time
}

// NewGenerator creates a generator drawing from r. A nil r is seeded from the clock.
// A nil now defaults to time.Now.
func NewGenerator(machineID string, r *rand.Rand, now func() time.Time) *Generator {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{MachineID: machineID, rand: r, now: now}
}

// Generate produces cfg.SampleCount labelled samples. A seeded cfg uses its own
// source and leaves the generator's source untouched.
func (g *Generator) Generate(cfg Config) ([]Sample, error) {
	return Generate(cfg, g.rand)
}

// Rows generates a table and wraps it into rows for the output sinks. Every
// call gets a fresh run id, returned even when the table is empty, and the run
// start time; row timestamps advance one second per sample.
func (g *Generator) Rows(cfg Config) (string, time.Time, []TelemetryRow, error) {
	samples, err := g.Generate(cfg)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	runID := uuid.New().String()
	start := g.now().UTC()
	return runID, start, NewRows(runID, g.MachineID, start, samples), nil
}

// NewRows wraps samples into telemetry rows starting at start.
func NewRows(runID, machineID string, start time.Time, samples []Sample) []TelemetryRow {
	rows := make([]TelemetryRow, len(samples))
	for i, s := range samples {
		rows[i] = TelemetryRow{
			RunID:     runID,
			MachineID: machineID,
			Sample:    s,
			Timestamp: start.Add(time.Duration(s.TimeIndex) * time.Second),
		}
	}
	return rows
}

// Generate validates cfg and draws a labelled table from r. Channels are drawn
// column by column in schema order so a given source always yields the same table.
func Generate(cfg Config, r *rand.Rand) ([]Sample, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	label, _ := cfg.labelFunc()
	if cfg.Seeded {
		r = rand.New(rand.NewSource(cfg.Seed))
	} else if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n := cfg.SampleCount
	samples := make([]Sample, n)
	for i := range samples {
		samples[i].TimeIndex = i
	}
	for i := range samples {
		samples[i].Temperature = normal(r, temperatureMean, temperatureStdDev)
	}
	for i := range samples {
		samples[i].Vibration = normal(r, vibrationMean, vibrationStdDev)
	}
	for i := range samples {
		samples[i].LoadPct = uniform(r, loadMin, loadMax)
	}
	for i := range samples {
		samples[i].AmbientTemp = uniform(r, ambientMin, ambientMax)
	}
	for i := range samples {
		samples[i].HumidityPct = uniform(r, humidityMin, humidityMax)
	}
	for i := range samples {
		samples[i].MachineAgeYears = uniform(r, ageMin, ageMax)
	}
	if cfg.NoiseStdDev > 0 {
		for i := range samples {
			samples[i].Temperature += normal(r, 0, cfg.NoiseStdDev)
		}
		for i := range samples {
			samples[i].Vibration += normal(r, 0, cfg.NoiseStdDev)
		}
	}

	for i := range samples {
		samples[i].Failure = label(samples[i], cfg.Thresholds)
	}
	return samples, nil
}

// Relabel recomputes the failure flag of every sample in place.
func Relabel(samples []Sample, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	label, _ := cfg.labelFunc()
	for i := range samples {
		samples[i].Failure = label(samples[i], cfg.Thresholds)
	}
	return nil
}

func normal(r *rand.Rand, mean, stddev float64) float64 {
	return r.NormFloat64()*stddev + mean
}

// uniform draws from [lo, hi).
func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
