package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"predictive-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayColor     bool
	replayRelabel   bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a telemetry log file",
	Long:  "replay feeds telemetry rows from a JSONL log back into the configured sinks or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		writer, cleanup, err := newWriters(cmd.Context(), cfg, writerOptions{PrintOnly: replayPrintOnly, Color: replayColor})
		if err != nil {
			return err
		}
		defer cleanup()
		if replayRelabel {
			tc := cfg.Telemetry()
			if err := tc.Validate(); err != nil {
				return err
			}
			writer = &sim.RelabelWriter{Next: writer, Config: tc}
		}
		return sim.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to telemetry log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to the configured sinks")
	replayCmd.Flags().BoolVar(&replayColor, "color", false, "Colorize STDOUT output when attached to a terminal")
	replayCmd.Flags().BoolVar(&replayRelabel, "relabel", false, "Recompute failure labels with the current thresholds")
	replayCmd.MarkFlagRequired("input")
}
