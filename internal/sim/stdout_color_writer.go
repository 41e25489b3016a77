// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"predictive-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints telemetry rows using ANSI colors. Failure rows are
// highlighted red; summaries are printed as an aligned table.
type ColorStdoutWriter struct {
	cfg  telemetry.Config
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout. cfg
// is only used for the overview printed before the first row.
func NewColorStdoutWriter(cfg telemetry.Config) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Policy:\t%s\n", w.cfg.PolicyName())
	fmt.Fprintf(tw, "Samples:\t%d\n", w.cfg.SampleCount)
	fmt.Fprintf(tw, "Temperature Threshold (°C):\t%.1f\n", w.cfg.Thresholds.Temperature)
	fmt.Fprintf(tw, "Vibration Threshold:\t%.1f\n", w.cfg.Thresholds.Vibration)
	fmt.Fprintf(tw, "Load Threshold (%%):\t%.1f\n", w.cfg.Thresholds.Load)
	if w.cfg.NoiseStdDev > 0 {
		fmt.Fprintf(tw, "Noise StdDev:\t%.2f\n", w.cfg.NoiseStdDev)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single telemetry row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.TelemetryRow) error {
	w.once.Do(w.printOverview)

	status, statusColor := "ok", colorGreen
	if row.Failure {
		status, statusColor = "FAILURE", colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%smachine=%s%s ", colorBlue, row.MachineID, colorReset)
	fmt.Fprintf(w.out, "t=%d ", row.TimeIndex)
	fmt.Fprintf(w.out, "%stemp=%.2f%s ", colorRed, row.Temperature, colorReset)
	fmt.Fprintf(w.out, "%svib=%.2f%s ", colorCyan, row.Vibration, colorReset)
	fmt.Fprintf(w.out, "%sload=%.1f%s ", colorYellow, row.LoadPct, colorReset)
	fmt.Fprintf(w.out, "%sambient=%.1f%s ", colorGreen, row.AmbientTemp, colorReset)
	fmt.Fprintf(w.out, "%shum=%.1f%s ", colorBlue, row.HumidityPct, colorReset)
	fmt.Fprintf(w.out, "%sage=%.1f%s ", colorMagenta, row.MachineAgeYears, colorReset)
	fmt.Fprintf(w.out, "%sstatus=%s%s\n", statusColor, status, colorReset)
	return nil
}

// WriteBatch outputs multiple telemetry rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteSummary prints the per-channel aggregates of a run.
func (w *ColorStdoutWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	w.once.Do(w.printOverview)
	rateColor := colorGreen
	if row.Summary.Failures > 0 {
		rateColor = colorRed
	}
	fmt.Fprintf(w.out, "\n%sSUMMARY%s run=%s policy=%s %sfailures=%d/%d (%.1f%%)%s\n",
		colorBlue, colorReset, row.RunID, row.Policy,
		rateColor, row.Summary.Failures, row.Summary.Samples, row.Summary.FailureRate*100, colorReset)
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Channel\tMin\tMax\tMean\n")
	for _, c := range telemetry.Columns {
		st, ok := row.Summary.Channels[c.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", c.Label, st.Min, st.Max, st.Mean)
	}
	tw.Flush()
	if row.Accuracy != nil {
		fmt.Fprintf(w.out, "%smodel accuracy=%.2f%s\n", colorMagenta, *row.Accuracy, colorReset)
	}
	return nil
}
