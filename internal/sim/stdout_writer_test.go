package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"predictive-sim/internal/telemetry"
)

func TestJSONStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &JSONStdoutWriter{out: buf}
	row := telemetry.TelemetryRow{MachineID: "m1", Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestColorStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{cfg: telemetry.DefaultConfig(), out: buf}
	row := telemetry.TelemetryRow{MachineID: "m1", Sample: telemetry.Sample{Temperature: 90, Failure: true}, Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Simulation Configuration:") || !strings.Contains(output, "Policy:") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, colorRed+"status=FAILURE") {
		t.Fatalf("expected red failure status: %q", output)
	}

	buf.Reset()
	if err := w.Write(row); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Simulation Configuration:") {
		t.Fatalf("overview printed more than once")
	}

	buf.Reset()
	sum := telemetry.RunSummaryRow{RunID: "r1", Summary: telemetry.Summarize([]telemetry.Sample{row.Sample})}
	if err := w.WriteSummary(sum); err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !strings.Contains(buf.String(), "failures=1/1") || !strings.Contains(buf.String(), "Temperature") {
		t.Fatalf("unexpected summary output: %q", buf.String())
	}
}
