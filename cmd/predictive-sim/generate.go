package main

import (
	"time"

	"github.com/spf13/cobra"

	"predictive-sim/internal/config"
	"predictive-sim/internal/logging"
	"predictive-sim/internal/model"
	"predictive-sim/internal/sim"
)

var (
	genPrintOnly bool
	genColor     bool
	genLogFile   string
	genSamples   int
	genSeed      int64
	genNoTrain   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and label one telemetry table",
	Long:  "generate draws one table of machine readings, labels failures and writes rows and the run summary to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("samples") {
			cfg.SampleCount = genSamples
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = &genSeed
		}
		if genNoTrain {
			cfg.Model.Enabled = false
		}
		if err := cfg.Telemetry().Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		writer, cleanup, err := newWriters(ctx, cfg, writerOptions{PrintOnly: genPrintOnly, Color: genColor, LogFile: genLogFile})
		if err != nil {
			return err
		}
		defer cleanup()

		s := newSimulator(cfg, writer, 0)
		run, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("generated table",
			"run_id", run.Summary.RunID,
			"samples", run.Summary.Summary.Samples,
			"failures", run.Summary.Summary.Failures)
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&genPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to the configured sinks")
	generateCmd.Flags().BoolVar(&genColor, "color", false, "Colorize STDOUT output when attached to a terminal")
	generateCmd.Flags().StringVar(&genLogFile, "log-file", "", "Path to export telemetry logs (JSONL); summaries go to <path>.summary")
	generateCmd.Flags().IntVar(&genSamples, "samples", 0, "Override the number of samples")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "Seed the generator for a reproducible table")
	generateCmd.Flags().BoolVar(&genNoTrain, "no-train", false, "Skip fitting the classifier")
}

// newSimulator wires a simulator from the file configuration.
func newSimulator(cfg *config.SimulationConfig, writer sim.TelemetryWriter, tick time.Duration) *sim.Simulator {
	return sim.NewSimulator(sim.Options{
		MachineID:    cfg.MachineID,
		Settings:     config.NewSettings(cfg.Telemetry()),
		Writer:       writer,
		TickInterval: tick,
		Train:        cfg.Model.Enabled,
		ModelOptions: model.OptionsFromConfig(cfg),
		ReportDir:    cfg.Report.OutputDir,
	})
}
