package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"predictive-sim/internal/telemetry"
)

// ReplayLog replays telemetry rows from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row telemetry.TelemetryRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its telemetry rows.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

type collector struct{ rows []telemetry.TelemetryRow }

func (c *collector) Write(r telemetry.TelemetryRow) error {
	c.rows = append(c.rows, r)
	return nil
}

// ReadLog decodes every telemetry row of a JSONL log.
func ReadLog(r io.Reader) ([]telemetry.TelemetryRow, error) {
	c := &collector{}
	if err := ReplayLog(r, c, 0); err != nil {
		return nil, err
	}
	return c.rows, nil
}

// ReadLogFile decodes every telemetry row of the JSONL log at path.
func ReadLogFile(path string) ([]telemetry.TelemetryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLog(f)
}

// RelabelWriter recomputes the failure flag of every row with cfg before
// passing it on.
type RelabelWriter struct {
	Next   TelemetryWriter
	Config telemetry.Config
}

// Write relabels row and forwards it.
func (w *RelabelWriter) Write(row telemetry.TelemetryRow) error {
	s := []telemetry.Sample{row.Sample}
	if err := telemetry.Relabel(s, w.Config); err != nil {
		return err
	}
	row.Sample = s[0]
	return w.Next.Write(row)
}
