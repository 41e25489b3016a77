package telemetry

import (
	"math"
	"math/rand"
	"testing"
)

func TestSummarizeMatchesIndependentAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleCount = 500
	samples, err := Generate(cfg, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	sum := Summarize(samples)

	maxTemp, minTemp, total := samples[0].Temperature, samples[0].Temperature, 0.0
	failures := 0
	for _, s := range samples {
		if s.Temperature > maxTemp {
			maxTemp = s.Temperature
		}
		if s.Temperature < minTemp {
			minTemp = s.Temperature
		}
		total += s.Temperature
		if s.Failure {
			failures++
		}
	}
	st := sum.Channel(ColTemperature)
	if st.Max != maxTemp || st.Min != minTemp {
		t.Fatalf("temperature min/max mismatch: %+v vs %f/%f", st, minTemp, maxTemp)
	}
	if math.Abs(st.Mean-total/float64(len(samples))) > 1e-9 {
		t.Fatalf("temperature mean mismatch: %f", st.Mean)
	}
	if sum.Failures != failures {
		t.Fatalf("failures = %d, want %d", sum.Failures, failures)
	}
	if sum.Samples != 500 {
		t.Fatalf("samples = %d", sum.Samples)
	}
	for _, ch := range Channels {
		if _, ok := sum.Channels[ch]; !ok {
			t.Fatalf("missing channel %s", ch)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.Samples != 0 || sum.Failures != 0 || sum.FailureRate != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if st := sum.Channel(ColLoad); st != (ChannelStats{}) {
		t.Fatalf("expected zero stats, got %+v", st)
	}
}

func TestSummarizeFailureRate(t *testing.T) {
	samples := []Sample{{Failure: true}, {}, {}, {Failure: true}}
	if r := Summarize(samples).FailureRate; r != 0.5 {
		t.Fatalf("failure rate = %f, want 0.5", r)
	}
}
