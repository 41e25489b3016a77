// Simulator orchestrating generation runs and writer fan-out
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"predictive-sim/internal/config"
	"predictive-sim/internal/model"
	"predictive-sim/internal/report"
	"predictive-sim/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TelemetryRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.TelemetryRow) error
}

// SummaryWriter receives one summary row per run.
type SummaryWriter interface {
	WriteSummary(telemetry.RunSummaryRow) error
}

// Controls are the actions an interactive writer may trigger.
type Controls struct {
	Regenerate    func() error
	Export        func() (string, error)
	SetThresholds func(telemetry.Thresholds) error
	Thresholds    func() telemetry.Thresholds
}

// controllable writers get the simulator's Controls on construction.
type controllable interface {
	SetControls(Controls)
}

// Run is the outcome of one generation.
type Run struct {
	Config  telemetry.Config
	Rows    []telemetry.TelemetryRow
	Summary telemetry.RunSummaryRow
	Model   *model.Result
}

// Samples returns the labelled table of the run.
func (r *Run) Samples() []telemetry.Sample {
	return telemetry.Samples(r.Rows)
}

// Report renders the run for export.
func (r *Run) Report(now time.Time) report.Report {
	rep := report.New(r.Summary.RunID, r.Summary.MachineID, r.Summary.Policy, r.Samples(), r.Config.Thresholds, now)
	rep.Model = r.Model
	return rep
}

// Options configures NewSimulator.
type Options struct {
	MachineID    string
	Settings     *config.Settings
	Writer       TelemetryWriter
	TickInterval time.Duration
	// Train fits the classifier after every run.
	Train        bool
	ModelOptions model.Options
	// ReportDir is where Controls.Export writes PDFs.
	ReportDir string
	Rand      *rand.Rand
	Now       func() time.Time
}

// Simulator generates labelled tables from the current settings and writes
// them out. Runs are serialised; each one reads a single settings snapshot.
type Simulator struct {
	machineID    string
	settings     *config.Settings
	gen          *telemetry.Generator
	writer       TelemetryWriter
	tickInterval time.Duration
	train        bool
	modelOpts    model.Options
	reportDir    string
	now          func() time.Time

	runMu  sync.Mutex
	mu     sync.RWMutex
	latest *Run
	runs   int
}

// NewSimulator creates a simulator. A nil Settings starts from the defaults.
func NewSimulator(opts Options) *Simulator {
	if opts.Settings == nil {
		opts.Settings = config.NewSettings(telemetry.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 10 * time.Second
	}
	if opts.ReportDir == "" {
		opts.ReportDir = "."
	}
	s := &Simulator{
		machineID:    opts.MachineID,
		settings:     opts.Settings,
		gen:          telemetry.NewGenerator(opts.MachineID, opts.Rand, opts.Now),
		writer:       opts.Writer,
		tickInterval: opts.TickInterval,
		train:        opts.Train,
		modelOpts:    opts.ModelOptions,
		reportDir:    opts.ReportDir,
		now:          opts.Now,
	}
	if c, ok := s.writer.(controllable); ok {
		c.SetControls(s.Controls())
	}
	return s
}

// Settings returns the shared settings cell.
func (s *Simulator) Settings() *config.Settings { return s.settings }

// MachineID returns the simulated machine id.
func (s *Simulator) MachineID() string { return s.machineID }

// Latest returns the most recent run or nil.
func (s *Simulator) Latest() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Runs returns how many runs completed.
func (s *Simulator) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// Controls binds the interactive actions to this simulator.
func (s *Simulator) Controls() Controls {
	return Controls{
		Regenerate: func() error {
			_, err := s.RunOnce(context.Background())
			return err
		},
		Export:        s.ExportReport,
		SetThresholds: s.settings.SetThresholds,
		Thresholds:    s.settings.Thresholds,
	}
}

// ExportReport writes a PDF for the latest run into the report directory.
func (s *Simulator) ExportReport() (string, error) {
	run := s.Latest()
	if run == nil {
		return "", errNoRun
	}
	return report.ExportPDF(s.reportDir, run.Report(s.now()))
}
