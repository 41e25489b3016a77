package telemetry

import (
	"math"
	"os"
	"time"
)

// ChannelStats holds plain aggregates for one channel.
type ChannelStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary aggregates a generated table.
type Summary struct {
	Samples     int                     `json:"samples"`
	Failures    int                     `json:"failures"`
	FailureRate float64                 `json:"failure_rate"`
	Channels    map[string]ChannelStats `json:"channels"`
}

// Channel returns the stats of the named channel.
func (s Summary) Channel(name string) ChannelStats {
	return s.Channels[name]
}

// Summarize computes per-channel min/max/mean and the failure count. An empty
// table gives zero stats for every channel.
func Summarize(samples []Sample) Summary {
	sum := Summary{Samples: len(samples), Channels: make(map[string]ChannelStats, len(Channels))}
	for _, name := range Channels {
		if len(samples) == 0 {
			sum.Channels[name] = ChannelStats{}
			continue
		}
		st := ChannelStats{Min: math.Inf(1), Max: math.Inf(-1)}
		var total float64
		for _, s := range samples {
			v := s.Value(name)
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
			total += v
		}
		st.Mean = total / float64(len(samples))
		sum.Channels[name] = st
	}
	for _, s := range samples {
		if s.Failure {
			sum.Failures++
		}
	}
	if len(samples) > 0 {
		sum.FailureRate = float64(sum.Failures) / float64(len(samples))
	}
	return sum
}

// RunSummaryRow captures the summary of one generation run.
type RunSummaryRow struct {
	RunID      string     `json:"run_id"`
	MachineID  string     `json:"machine_id"`
	Policy     string     `json:"policy"`
	Thresholds Thresholds `json:"thresholds"`
	Summary    Summary    `json:"summary"`
	Accuracy   *float64   `json:"accuracy,omitempty"`
	Timestamp  time.Time  `json:"ts"`
}

// SummaryTableName is the GreptimeDB table for run summaries, overridable via
// GREPTIMEDB_SUMMARY_TABLE.
var SummaryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_SUMMARY_TABLE"); env != "" {
		return env
	}
	return "machine_run_summary"
}()

func (RunSummaryRow) TableName() string {
	return SummaryTableName
}

// Samples extracts the samples of rows.
func Samples(rows []TelemetryRow) []Sample {
	out := make([]Sample, len(rows))
	for i, r := range rows {
		out[i] = r.Sample
	}
	return out
}
