package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"predictive-sim/internal/config"
	"predictive-sim/internal/logging"
	"predictive-sim/internal/telemetry"
)

var (
	setTemp      float64
	setVibration float64
	setLoad      float64
	setPolicy    string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Configure the failure thresholds",
	Long:  "settings opens an interactive form (or takes --temp/--vibration/--load) and saves validated thresholds into the config file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return errors.New("settings needs a --config path to save to")
		}
		cfg, err := readConfig(cmd)
		if err != nil {
			return err
		}
		th := cfg.Telemetry().Thresholds
		policy := cfg.Policy

		flags := cmd.Flags()
		if flags.Changed("temp") || flags.Changed("vibration") || flags.Changed("load") || flags.Changed("policy") {
			if flags.Changed("temp") {
				th.Temperature = setTemp
			}
			if flags.Changed("vibration") {
				th.Vibration = setVibration
			}
			if flags.Changed("load") {
				th.Load = setLoad
			}
			if flags.Changed("policy") {
				policy = setPolicy
			}
		} else if th, policy, err = runSettingsForm(th, policy); err != nil {
			return err
		}

		if err := applySettings(cfg, th, policy); err != nil {
			return err
		}
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("settings saved", "path", configPath,
			"temperature", th.Temperature, "vibration", th.Vibration, "load", th.Load, "policy", policy)
		fmt.Fprintln(cmd.OutOrStdout(), "Thresholds saved successfully.")
		return nil
	},
}

// applySettings stores th and policy in cfg once the resulting config validates.
func applySettings(cfg *config.SimulationConfig, th telemetry.Thresholds, policy string) error {
	next := *cfg
	next.SetThresholds(th)
	next.Policy = policy
	if err := next.Telemetry().Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

func runSettingsForm(th telemetry.Thresholds, policy string) (telemetry.Thresholds, string, error) {
	temp := strconv.FormatFloat(th.Temperature, 'f', -1, 64)
	vib := strconv.FormatFloat(th.Vibration, 'f', -1, 64)
	load := strconv.FormatFloat(th.Load, 'f', -1, 64)
	save := true

	options := make([]huh.Option[string], 0, len(telemetry.Policies()))
	for _, name := range telemetry.Policies() {
		options = append(options, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("temperature").
				Title("Temperature threshold (°C)").
				Value(&temp).
				Validate(validateNumber),
			huh.NewInput().
				Key("vibration").
				Title("Vibration threshold").
				Value(&vib).
				Validate(validateNumber),
			huh.NewInput().
				Key("load").
				Title("Load threshold (%)").
				Value(&load).
				Validate(validateNumber),
			huh.NewSelect[string]().
				Key("policy").
				Title("Labelling policy").
				Options(options...).
				Value(&policy),
			huh.NewConfirm().
				Key("save").
				Title("Save Configuration").
				Affirmative("Save").
				Negative("Cancel").
				Value(&save),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return th, policy, err
	}
	if !save {
		return th, policy, errors.New("settings not saved")
	}
	out, err := parseThresholds(temp, vib, load)
	return out, policy, err
}

func validateNumber(s string) error {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("please enter a numeric value")
	}
	return nil
}

func parseThresholds(temp, vib, load string) (telemetry.Thresholds, error) {
	var out [3]float64
	for i, s := range []string{temp, vib, load} {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return telemetry.Thresholds{}, fmt.Errorf("please enter valid numeric values")
		}
		out[i] = f
	}
	return telemetry.Thresholds{Temperature: out[0], Vibration: out[1], Load: out[2]}, nil
}

func init() {
	settingsCmd.Flags().Float64Var(&setTemp, "temp", 0, "Temperature threshold (°C)")
	settingsCmd.Flags().Float64Var(&setVibration, "vibration", 0, "Vibration threshold")
	settingsCmd.Flags().Float64Var(&setLoad, "load", 0, "Load threshold (%)")
	settingsCmd.Flags().StringVar(&setPolicy, "policy", "", "Labelling policy")
}
