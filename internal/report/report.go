// Statistics, recommendations and per-failure reports for a generated table
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"predictive-sim/internal/model"
	"predictive-sim/internal/telemetry"
)

// NoFailuresMessage is rendered when a table contains no failure rows.
const NoFailuresMessage = "No failures detected."

// Report is everything rendered for one generation run.
type Report struct {
	RunID           string
	MachineID       string
	Policy          string
	GeneratedAt     time.Time
	Thresholds      telemetry.Thresholds
	Summary         telemetry.Summary
	Recommendations []string
	Failures        FailureReport
	Model           *model.Result
}

// New builds a report for samples labelled with th.
func New(runID, machineID, policy string, samples []telemetry.Sample, th telemetry.Thresholds, now time.Time) Report {
	sum := telemetry.Summarize(samples)
	return Report{
		RunID:           runID,
		MachineID:       machineID,
		Policy:          policy,
		GeneratedAt:     now,
		Thresholds:      th,
		Summary:         sum,
		Recommendations: Recommendations(sum, th),
		Failures:        Failures(samples, th),
	}
}

// Statistics renders the general statistics block.
func Statistics(sum telemetry.Summary) string {
	t := sum.Channel(telemetry.ColTemperature)
	v := sum.Channel(telemetry.ColVibration)
	l := sum.Channel(telemetry.ColLoad)
	var b strings.Builder
	fmt.Fprintf(&b, "Max temperature: %.2f °C\n", t.Max)
	fmt.Fprintf(&b, "Min temperature: %.2f °C\n", t.Min)
	fmt.Fprintf(&b, "Mean temperature: %.2f °C\n", t.Mean)
	fmt.Fprintf(&b, "Max vibration: %.2f\n", v.Max)
	fmt.Fprintf(&b, "Min vibration: %.2f\n", v.Min)
	fmt.Fprintf(&b, "Mean vibration: %.2f\n", v.Mean)
	fmt.Fprintf(&b, "Max load: %.2f %%\n", l.Max)
	fmt.Fprintf(&b, "Min load: %.2f %%\n", l.Min)
	fmt.Fprintf(&b, "Failures detected: %d of %d samples\n", sum.Failures, sum.Samples)
	return b.String()
}

// Recommended actions.
const (
	RecommendCooling   = "Monitor the cooling system to prevent overheating."
	RecommendBalancing = "Check machine stability and adjust balancing."
	RecommendLoad      = "Reduce machine load to prevent overload."
	RecommendReview    = "Review the critical components of the machine."
)

// Recommendations lists corrective actions for the peaks in sum.
func Recommendations(sum telemetry.Summary, th telemetry.Thresholds) []string {
	var out []string
	if sum.Samples == 0 {
		return out
	}
	if sum.Channel(telemetry.ColTemperature).Max > th.Temperature {
		out = append(out, RecommendCooling)
	}
	if sum.Channel(telemetry.ColVibration).Max > th.Vibration {
		out = append(out, RecommendBalancing)
	}
	if sum.Channel(telemetry.ColLoad).Max > th.Load {
		out = append(out, RecommendLoad)
	}
	if sum.Failures > 0 {
		out = append(out, RecommendReview)
	}
	return out
}

// FailureEntry describes one failed sample.
type FailureEntry struct {
	TimeIndex         int     `json:"time_index"`
	Temperature       float64 `json:"temperature"`
	Vibration         float64 `json:"vibration"`
	LoadPct           float64 `json:"load_pct"`
	TemperatureBreach bool    `json:"temperature_breach"`
	VibrationBreach   bool    `json:"vibration_breach"`
	LoadBreach        bool    `json:"load_breach"`
	Action            string  `json:"action"`
}

// FailureReport lists the failed samples of a table in time order.
type FailureReport struct {
	Entries []FailureEntry `json:"entries"`
}

// Failures builds the per-failure report.
func Failures(samples []telemetry.Sample, th telemetry.Thresholds) FailureReport {
	var r FailureReport
	for _, s := range samples {
		if !s.Failure {
			continue
		}
		e := FailureEntry{
			TimeIndex:         s.TimeIndex,
			Temperature:       s.Temperature,
			Vibration:         s.Vibration,
			LoadPct:           s.LoadPct,
			TemperatureBreach: s.Temperature > th.Temperature,
			VibrationBreach:   s.Vibration > th.Vibration,
			LoadBreach:        s.LoadPct > th.Load,
		}
		e.Action = action(e)
		r.Entries = append(r.Entries, e)
	}
	return r
}

func action(e FailureEntry) string {
	switch {
	case e.TemperatureBreach && e.VibrationBreach:
		return "Immediate maintenance and equipment adjustment."
	case e.TemperatureBreach:
		return "Monitor temperature and review the cooling system."
	case e.VibrationBreach:
		return "Check machine stability and adjust balancing."
	case e.LoadBreach:
		return "Reduce machine load."
	}
	return "Inspect operating conditions and machine age."
}

func status(breach bool) string {
	if breach {
		return "above limit"
	}
	return "ok"
}

// Lines renders each entry as a block of lines.
func (e FailureEntry) Lines() []string {
	return []string{
		fmt.Sprintf("Failure at: %d s", e.TimeIndex),
		fmt.Sprintf("  - Temperature: %.2f (%s)", e.Temperature, status(e.TemperatureBreach)),
		fmt.Sprintf("  - Vibration: %.2f (%s)", e.Vibration, status(e.VibrationBreach)),
		fmt.Sprintf("  - Load: %.2f (%s)", e.LoadPct, status(e.LoadBreach)),
		"  - Recommended action: " + e.Action,
	}
}

func (r FailureReport) String() string {
	if len(r.Entries) == 0 {
		return NoFailuresMessage
	}
	sep := strings.Repeat("-", 30)
	var b strings.Builder
	b.WriteString("Failure report:\n")
	b.WriteString(sep + "\n")
	for _, e := range r.Entries {
		for _, l := range e.Lines() {
			b.WriteString(l + "\n")
		}
		b.WriteString(sep + "\n")
	}
	return b.String()
}

// WriteText renders r as plain text.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Predictive maintenance report\n")
	fmt.Fprintf(&b, "Machine: %s  Run: %s  Policy: %s\n", r.MachineID, r.RunID, r.Policy)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("02/01/2006 15:04:05"))
	b.WriteString("General statistics\n")
	b.WriteString(Statistics(r.Summary))
	b.WriteString("\nRecommendations\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("- None.\n")
	}
	for _, rec := range r.Recommendations {
		b.WriteString("- " + rec + "\n")
	}
	if r.Model != nil {
		b.WriteString("\nModel\n")
		b.WriteString(ModelSummary(*r.Model) + "\n")
	}
	b.WriteString("\n" + r.Failures.String())
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ModelSummary renders a trainer result on one line per metric.
func ModelSummary(res model.Result) string {
	lines := []string{fmt.Sprintf("Model accuracy: %.2f", res.Accuracy)}
	if res.ValidationAccuracy != nil {
		lines = append(lines, fmt.Sprintf("Validation accuracy: %.2f", *res.ValidationAccuracy))
	}
	if res.CVAccuracy != nil {
		lines = append(lines, fmt.Sprintf("Cross-validation accuracy: %.2f", *res.CVAccuracy))
	}
	if res.SingleClass {
		lines = append(lines, "Training labels contain a single class.")
	}
	if res.PredictedFailure {
		lines = append(lines, "Failure predicted!")
	} else {
		lines = append(lines, "No failure predicted.")
	}
	return strings.Join(lines, "\n")
}
