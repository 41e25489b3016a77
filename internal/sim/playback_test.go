package sim

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"predictive-sim/internal/telemetry"
)

type collectWriter struct{ rows []telemetry.TelemetryRow }

func (c *collectWriter) Write(r telemetry.TelemetryRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func encodeRows(t *testing.T, rows []telemetry.TelemetryRow) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.TelemetryRow{
		{MachineID: "m1", Sample: telemetry.Sample{TimeIndex: 0}, Timestamp: time.Unix(0, 0)},
		{MachineID: "m1", Sample: telemetry.Sample{TimeIndex: 1, Failure: true}, Timestamp: time.Unix(1, 0)},
	}
	cw := &collectWriter{}
	if err := ReplayLog(encodeRows(t, rows), cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].TimeIndex != r.TimeIndex || cw.rows[i].Failure != r.Failure {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReadLogFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	fw, err := NewFileWriter(path, "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	samples := []telemetry.Sample{{TimeIndex: 0, Temperature: 70}, {TimeIndex: 1, Temperature: 81, Failure: true}}
	if err := fw.WriteBatch(telemetry.NewRows("r1", "m1", time.Unix(0, 0).UTC(), samples)); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	fw.Close()

	got, err := ReadLogFile(path)
	if err != nil {
		t.Fatalf("ReadLogFile: %v", err)
	}
	if len(got) != 2 || got[1].Temperature != 81 || got[1].RunID != "r1" {
		t.Fatalf("unexpected rows %+v", got)
	}
	if _, err := ReadLogFile(filepath.Join(t.TempDir(), "missing.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestRelabelWriter(t *testing.T) {
	cfg := telemetry.DefaultConfig()
	cfg.Thresholds.Temperature = 90
	cw := &collectWriter{}
	w := &RelabelWriter{Next: cw, Config: cfg}
	row := telemetry.TelemetryRow{Sample: telemetry.Sample{Temperature: 85, Vibration: 30, LoadPct: 60, Failure: true}}
	if err := w.Write(row); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cw.rows[0].Failure {
		t.Fatalf("row should be relabelled as healthy at the raised threshold")
	}
}
