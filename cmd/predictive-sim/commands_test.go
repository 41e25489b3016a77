package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"predictive-sim/internal/config"
	"predictive-sim/internal/sim"
	"predictive-sim/internal/telemetry"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulation.yaml")
	cfg := config.Default()
	cfg.SampleCount = 40
	cfg.Model.Trees = 5
	cfg.Report.OutputDir = filepath.Dir(path)
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestSettingsCommandFlags(t *testing.T) {
	path := writeConfig(t)
	out := execute(t, "settings", "--config", path, "--schema", "", "--temp", "85", "--vibration", "55", "--load", "95")
	if !strings.Contains(out, "Thresholds saved successfully.") {
		t.Fatalf("output = %q", out)
	}
	cfg, err := config.Load(path, "")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := telemetry.Thresholds{Temperature: 85, Vibration: 55, Load: 95}
	if cfg.Telemetry().Thresholds != want {
		t.Fatalf("thresholds = %+v", cfg.Thresholds)
	}
	if cfg.SampleCount != 40 {
		t.Fatalf("other settings lost: %d", cfg.SampleCount)
	}
}

func TestApplySettingsRejectsUnknownPolicy(t *testing.T) {
	cfg := config.Default()
	if err := applySettings(cfg, telemetry.DefaultThresholds(), "nope"); err == nil {
		t.Fatalf("expected error")
	}
	if cfg.Policy != telemetry.PolicySimple {
		t.Fatalf("config modified on error: %q", cfg.Policy)
	}
}

func TestGenerateThenReport(t *testing.T) {
	clearSinkEnv(t)
	path := writeConfig(t)
	logPath := filepath.Join(t.TempDir(), "run.jsonl")
	execute(t, "generate", "--config", path, "--schema", "", "--print-only", "--log-file", logPath, "--seed", "3", "--no-train")

	rows, err := sim.ReadLogFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(rows) != 40 {
		t.Fatalf("rows = %d, want 40", len(rows))
	}

	out := execute(t, "report", "--config", path, "--schema", "", "--input", logPath)
	if !strings.Contains(out, "Report saved as ") {
		t.Fatalf("report output = %q", out)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "maintenance_report_*.pdf"))
	if len(matches) != 1 {
		t.Fatalf("pdf files = %v", matches)
	}
	if info, err := os.Stat(matches[0]); err != nil || info.Size() == 0 {
		t.Fatalf("empty pdf: %v", err)
	}
}
