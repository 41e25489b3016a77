package sim

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"predictive-sim/internal/telemetry"
)

func TestSQLWriterSQLite(t *testing.T) {
	db, err := OpenDatabase("sqlite", filepath.Join(t.TempDir(), "sim.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w, err := NewSQLWriter(db)
	if err != nil {
		t.Fatalf("NewSQLWriter: %v", err)
	}
	defer w.Close()

	ts := time.Unix(100, 0).UTC()
	samples := []telemetry.Sample{
		{TimeIndex: 0, Temperature: 70, Vibration: 30, LoadPct: 60},
		{TimeIndex: 1, Temperature: 85, Vibration: 30, LoadPct: 60, Failure: true},
	}
	rows := telemetry.NewRows("run-1", "press-01", ts, samples)
	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	var stored []TelemetrySample
	if err := db.Order("time_index").Find(&stored).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 2 || !stored[1].Failure || stored[1].Temperature != 85 {
		t.Fatalf("unexpected rows %+v", stored)
	}

	sum := telemetry.RunSummaryRow{RunID: "run-1", MachineID: "press-01", Policy: "simple", Summary: telemetry.Summarize(samples), Timestamp: ts}
	if err := w.WriteSummary(sum); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	var rec RunSummary
	if err := db.First(&rec, "run_id = ?", "run-1").Error; err != nil {
		t.Fatalf("query summary: %v", err)
	}
	if rec.Failures != 1 || rec.TemperatureMax != 85 || rec.Accuracy != nil {
		t.Fatalf("unexpected summary %+v", rec)
	}
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	if _, err := OpenDatabase("oracle", ""); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestSQLWriterConsecutiveEmptyRuns(t *testing.T) {
	db, err := OpenDatabase("sqlite", filepath.Join(t.TempDir(), "sim.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w, err := NewSQLWriter(db)
	if err != nil {
		t.Fatalf("NewSQLWriter: %v", err)
	}
	defer w.Close()

	cfg := telemetry.DefaultConfig()
	cfg.SampleCount = 0
	s := newTestSimulator(w, cfg)
	ids := map[string]bool{}
	for i := 0; i < 2; i++ {
		run, err := s.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if run.Summary.RunID == "" {
			t.Fatalf("run %d has no run id", i)
		}
		ids[run.Summary.RunID] = true
	}
	if len(ids) != 2 {
		t.Fatalf("expected two distinct run ids, got %v", ids)
	}
	var count int64
	if err := db.Model(&RunSummary{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("stored summaries = %d, want 2", count)
	}
}
