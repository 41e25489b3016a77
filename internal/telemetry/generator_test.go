package telemetry

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func TestGenerateRowCountAndIndex(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		cfg := DefaultConfig()
		cfg.SampleCount = n
		samples, err := Generate(cfg, rand.New(rand.NewSource(1)))
		if err != nil {
			t.Fatalf("Generate(n=%d) returned error: %v", n, err)
		}
		if len(samples) != n {
			t.Fatalf("expected %d samples, got %d", n, len(samples))
		}
		for i, s := range samples {
			if s.TimeIndex != i {
				t.Fatalf("sample %d has time index %d", i, s.TimeIndex)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleCount = 200
	a, err := Generate(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical tables for identical sources")
	}

	seeded := cfg.WithSeed(7)
	g := NewGenerator("m1", rand.New(rand.NewSource(1)), nil)
	c, _ := g.Generate(seeded)
	d, _ := g.Generate(seeded)
	if !reflect.DeepEqual(c, d) {
		t.Fatalf("expected seeded config to reproduce the table")
	}
}

func TestGenerateChannelRanges(t *testing.T) {
	cfg := DefaultConfig().WithSeed(3)
	samples, err := Generate(cfg, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, s := range samples {
		if s.LoadPct < 50 || s.LoadPct >= 100 {
			t.Fatalf("load out of range: %f", s.LoadPct)
		}
		if s.AmbientTemp < 20 || s.AmbientTemp >= 40 {
			t.Fatalf("ambient out of range: %f", s.AmbientTemp)
		}
		if s.HumidityPct < 30 || s.HumidityPct >= 80 {
			t.Fatalf("humidity out of range: %f", s.HumidityPct)
		}
		if s.MachineAgeYears < 1 || s.MachineAgeYears >= 10 {
			t.Fatalf("age out of range: %f", s.MachineAgeYears)
		}
		if s.Failure != SimplePolicy(s, cfg.Thresholds) {
			t.Fatalf("row %d label does not match policy", s.TimeIndex)
		}
	}
	sum := Summarize(samples)
	if m := sum.Channel(ColTemperature).Mean; math.Abs(m-70) > 1 {
		t.Errorf("temperature mean %f too far from 70", m)
	}
	if m := sum.Channel(ColVibration).Mean; math.Abs(m-30) > 2 {
		t.Errorf("vibration mean %f too far from 30", m)
	}
}

func TestGenerateInvalidConfiguration(t *testing.T) {
	cases := map[string]func(*Config){
		"negative count": func(c *Config) { c.SampleCount = -1 },
		"nan temp":       func(c *Config) { c.Thresholds.Temperature = math.NaN() },
		"inf vibration":  func(c *Config) { c.Thresholds.Vibration = math.Inf(1) },
		"inf load":       func(c *Config) { c.Thresholds.Load = math.Inf(-1) },
		"unknown policy": func(c *Config) { c.Policy = "nope" },
		"negative noise": func(c *Config) { c.NoiseStdDev = -1 },
		"unknown set":    func(c *Config) { c.Features = "partial" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			r := rand.New(rand.NewSource(5))
			samples, err := Generate(cfg, r)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
			if samples != nil {
				t.Fatalf("expected no table, got %d rows", len(samples))
			}
			if got, want := r.Int63(), rand.New(rand.NewSource(5)).Int63(); got != want {
				t.Fatalf("random source was consumed before validation")
			}
		})
	}
}

func TestGenerateCustomLabel(t *testing.T) {
	cfg := DefaultConfig().WithSeed(1)
	cfg.SampleCount = 10
	cfg.Label = func(s Sample, _ Thresholds) bool { return s.TimeIndex%2 == 0 }
	samples, err := Generate(cfg, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, s := range samples {
		if s.Failure != (s.TimeIndex%2 == 0) {
			t.Fatalf("custom label not applied to row %d", s.TimeIndex)
		}
	}
	if cfg.PolicyName() != "custom" {
		t.Errorf("expected custom policy name, got %s", cfg.PolicyName())
	}
}

func TestGenerateNoiseKeepsBaseDraws(t *testing.T) {
	base := DefaultConfig().WithSeed(11)
	base.SampleCount = 50
	noisy := base
	noisy.NoiseStdDev = 2
	a, _ := Generate(base, nil)
	b, _ := Generate(noisy, nil)
	for i := range a {
		if a[i].LoadPct != b[i].LoadPct || a[i].MachineAgeYears != b[i].MachineAgeYears {
			t.Fatalf("noise changed uniform channels at row %d", i)
		}
	}
	if reflect.DeepEqual(a, b) {
		t.Fatalf("expected noise to change temperature or vibration")
	}
}

func TestGeneratorRows(t *testing.T) {
	start := time.Unix(100, 0).UTC()
	g := NewGenerator("press-01", rand.New(rand.NewSource(1)), func() time.Time { return start })
	cfg := DefaultConfig()
	cfg.SampleCount = 3
	runID, ts, rows, err := g.Rows(cfg)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.MachineID != "press-01" || r.RunID == "" {
			t.Errorf("row has missing IDs: %+v", r)
		}
		if r.RunID != runID {
			t.Errorf("rows of one run must share the run id")
		}
		if want := start.Add(time.Duration(i) * time.Second); !r.Timestamp.Equal(want) {
			t.Errorf("row %d timestamp %v, want %v", i, r.Timestamp, want)
		}
	}
	if !ts.Equal(start) {
		t.Errorf("run start %v, want %v", ts, start)
	}
	againID, _, _, _ := g.Rows(cfg)
	if againID == runID {
		t.Errorf("expected a new run id per call")
	}
}

func TestGeneratorRowsEmptyTableHasRunID(t *testing.T) {
	g := NewGenerator("press-01", rand.New(rand.NewSource(1)), nil)
	cfg := DefaultConfig()
	cfg.SampleCount = 0
	first, _, rows, err := g.Rows(cfg)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 0 || first == "" {
		t.Fatalf("rows=%d run id=%q", len(rows), first)
	}
	second, _, _, _ := g.Rows(cfg)
	if second == "" || second == first {
		t.Fatalf("empty runs must get distinct ids: %q %q", first, second)
	}
}

func TestRelabel(t *testing.T) {
	samples := []Sample{{Temperature: 85}, {Temperature: 70}}
	cfg := DefaultConfig()
	cfg.Thresholds.Temperature = 90
	if err := Relabel(samples, cfg); err != nil {
		t.Fatalf("Relabel: %v", err)
	}
	if samples[0].Failure || samples[1].Failure {
		t.Fatalf("expected no failures with raised threshold: %+v", samples)
	}
}

func TestTelemetryRowTableName(t *testing.T) {
	orig := TelemetryTableName
	TelemetryTableName = "custom"
	defer func() { TelemetryTableName = orig }()
	if (TelemetryRow{}).TableName() != "custom" {
		t.Errorf("expected custom table name, got %s", (TelemetryRow{}).TableName())
	}
}
