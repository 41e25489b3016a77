package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"predictive-sim/internal/config"
	"predictive-sim/internal/logging"
	"predictive-sim/internal/profile"
)

const defaultConfigPath = "config/simulation.yaml"

var (
	configPath  string
	schemaPath  string
	profileName string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "predictive-sim",
	Short: "Predictive maintenance simulation toolkit",
	Long: "predictive-sim generates synthetic machine telemetry, labels failures with threshold rules,\n" +
		"trains a random forest on the labels and renders maintenance reports.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()
		lvl := logLevel
		if lvl == "" {
			lvl = os.Getenv("LOG_LEVEL")
		}
		log := logging.New(logging.Options{Level: lvl})
		slog.SetDefault(log)
		cmd.SetContext(logging.NewContext(cmd.Context(), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to simulation configuration YAML")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file (empty disables validation)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Built-in profile name or profile YAML path applied on top of the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(grafanaCmd)
}

// loadConfig reads the configuration file and applies the selected profile.
// A missing default config file falls back to the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.SimulationConfig, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	if profileName != "" {
		p, err := profile.Resolve(profileName)
		if err != nil {
			return nil, err
		}
		if cfg, err = p.Apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Logging.File != "" || (logLevel == "" && cfg.Logging.Level != "") {
		lvl := logLevel
		if lvl == "" {
			lvl = cfg.Logging.Level
		}
		log := logging.New(logging.Options{
			Level:      lvl,
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		slog.SetDefault(log)
		cmd.SetContext(logging.NewContext(cmd.Context(), log))
	}
	return cfg, nil
}

func readConfig(cmd *cobra.Command) (*config.SimulationConfig, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		logging.FromContext(cmd.Context()).Debug("no config file, using defaults", "path", configPath)
		return config.Default(), nil
	}
	return config.Load(configPath, schemaPath)
}
