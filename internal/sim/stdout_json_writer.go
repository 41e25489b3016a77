package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"predictive-sim/internal/telemetry"
)

// JSONStdoutWriter prints telemetry rows and run summaries as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a telemetry row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.TelemetryRow) error {
	return w.encode(row)
}

// WriteBatch outputs multiple telemetry rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := w.encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary outputs a run summary in JSON format.
func (w *JSONStdoutWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	return w.encode(row)
}

func (w *JSONStdoutWriter) encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
