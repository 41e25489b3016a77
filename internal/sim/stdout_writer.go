// Writer selection for STDOUT
package sim

import (
	"os"

	"golang.org/x/term"

	"predictive-sim/internal/telemetry"
)

// StdoutWriter is a TelemetryWriter and SummaryWriter for STDOUT.
type StdoutWriter interface {
	TelemetryWriter
	batchWriter
	SummaryWriter
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewStdoutWriter returns a colorized writer when color is requested and
// STDOUT is a terminal, and a JSON lines writer otherwise.
func NewStdoutWriter(cfg telemetry.Config, color bool) StdoutWriter {
	if color && IsTerminal(os.Stdout) {
		return NewColorStdoutWriter(cfg)
	}
	return NewJSONStdoutWriter()
}
