package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"predictive-sim/internal/logging"
	"predictive-sim/internal/model"
	"predictive-sim/internal/report"
	"predictive-sim/internal/sim"
	"predictive-sim/internal/telemetry"
)

var (
	reportInput     string
	reportOutputDir string
	reportNoPDF     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a maintenance report and export it as PDF",
	Long:  "report prints statistics, recommendations and the failure report for a fresh table or a replayed JSONL log, and writes a timestamped PDF.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		tc := cfg.Telemetry()
		if err := tc.Validate(); err != nil {
			return err
		}
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		var (
			rows  []telemetry.TelemetryRow
			runID string
			now   = time.Now()
		)
		if reportInput != "" {
			if rows, err = sim.ReadLogFile(reportInput); err != nil {
				return err
			}
			if len(rows) > 0 {
				runID = rows[0].RunID
			}
		} else {
			gen := telemetry.NewGenerator(cfg.MachineID, nil, nil)
			if runID, _, rows, err = gen.Rows(tc); err != nil {
				return err
			}
		}
		samples := telemetry.Samples(rows)
		rep := report.New(runID, cfg.MachineID, tc.PolicyName(), samples, tc.Thresholds, now)
		if cfg.Model.Enabled && len(samples) > 0 {
			res, err := model.Train(samples, model.OptionsFromConfig(cfg))
			if err != nil {
				log.Warn("training failed", "err", err)
			} else {
				rep.Model = &res
			}
		}

		if err := report.WriteText(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
		if reportNoPDF {
			return nil
		}
		dir := cfg.Report.OutputDir
		if reportOutputDir != "" {
			dir = reportOutputDir
		}
		path, err := report.ExportPDF(dir, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved as %s\n", path)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "Build the report from a JSONL telemetry log")
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "", "Directory for the PDF (defaults to report.output_dir)")
	reportCmd.Flags().BoolVar(&reportNoPDF, "no-pdf", false, "Skip the PDF export")
}
