package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"predictive-sim/internal/logging"
	"predictive-sim/internal/model"
	"predictive-sim/internal/report"
	"predictive-sim/internal/sim"
	"predictive-sim/internal/telemetry"
)

var (
	trainInput    string
	trainSamples  int
	trainFeatures string
	trainJSON     bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the failure classifier on a fresh table",
	Long:  "train generates a labelled table (or reads a JSONL log), fits the random forest and prints the held-out accuracy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("samples") {
			cfg.SampleCount = trainSamples
		}
		if trainFeatures != "" {
			cfg.FeatureSet = trainFeatures
		}
		tc := cfg.Telemetry()
		if err := tc.Validate(); err != nil {
			return err
		}

		var samples []telemetry.Sample
		if trainInput != "" {
			rows, err := sim.ReadLogFile(trainInput)
			if err != nil {
				return err
			}
			samples = telemetry.Samples(rows)
		} else {
			gen := telemetry.NewGenerator(cfg.MachineID, nil, nil)
			if samples, err = gen.Generate(tc); err != nil {
				return err
			}
		}

		res, err := model.Train(samples, model.OptionsFromConfig(cfg))
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		log := logging.FromContext(cmd.Context())
		if res.SingleClass {
			log.Warn("training labels contain a single class; accuracy is trivial")
		}
		log.Info("trained classifier", "train", res.TrainSize, "test", res.TestSize, "accuracy", res.Accuracy)

		out := cmd.OutOrStdout()
		if trainJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		_, err = fmt.Fprintln(out, report.ModelSummary(res))
		return err
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainInput, "input", "", "Train on a JSONL telemetry log instead of a fresh table")
	trainCmd.Flags().IntVar(&trainSamples, "samples", 0, "Override the number of samples")
	trainCmd.Flags().StringVar(&trainFeatures, "features", "", "Feature set (full or core)")
	trainCmd.Flags().BoolVar(&trainJSON, "json", false, "Print the result as JSON")
}
