package sim

import (
	"errors"
	"io"

	"predictive-sim/internal/telemetry"
)

// MultiWriter fan-outs telemetry rows and summaries to multiple writers.
type MultiWriter struct {
	telewriters []TelemetryWriter
	sumwriters  []SummaryWriter
}

// NewMultiWriter creates a new MultiWriter. Telemetry writers that also
// implement SummaryWriter receive summaries too; sws lists summary-only sinks.
func NewMultiWriter(tws []TelemetryWriter, sws []SummaryWriter) *MultiWriter {
	return &MultiWriter{telewriters: tws, sumwriters: sws}
}

// Write sends a telemetry row to all writers. A failing writer does not stop
// the others; errors are joined.
func (mw *MultiWriter) Write(row telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		errs = append(errs, w.Write(row))
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple telemetry rows to all writers, using batch if
// supported. Each writer gets the whole batch; a writer without batch support
// stops at its first failing row. Errors are joined.
func (mw *MultiWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		if bw, ok := w.(batchWriter); ok {
			errs = append(errs, bw.WriteBatch(rows))
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteSummary sends a run summary to every writer that accepts one. All
// writers are tried; their errors are joined.
func (mw *MultiWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		if sw, ok := w.(SummaryWriter); ok {
			errs = append(errs, sw.WriteSummary(row))
		}
	}
	for _, sw := range mw.sumwriters {
		errs = append(errs, sw.WriteSummary(row))
	}
	return errors.Join(errs...)
}

// SetControls forwards the simulator controls to writers that accept them.
func (mw *MultiWriter) SetControls(c Controls) {
	for _, w := range mw.telewriters {
		if cw, ok := w.(controllable); ok {
			cw.SetControls(c)
		}
	}
}

// Close closes every writer that implements io.Closer.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.telewriters {
		if c, ok := w.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	for _, w := range mw.sumwriters {
		if c, ok := w.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
