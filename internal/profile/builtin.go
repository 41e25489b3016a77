package profile

import (
	"predictive-sim/internal/config"
	"predictive-sim/internal/telemetry"
)

// BuiltIn returns the predefined profiles.
func BuiltIn() map[string]Profile {
	return map[string]Profile{
		"dashboard": {
			Name:        "Dashboard",
			Description: "Interactive dashboard defaults: three adjustable thresholds, all six channels.",
			Policy:      telemetry.PolicySimple,
			FeatureSet:  string(telemetry.FeaturesFull),
			SampleCount: 1000,
			Thresholds:  &config.ThresholdConfig{Temperature: 80, Vibration: 50, Load: 90},
		},
		"datasim": {
			Name:        "Data simulation",
			Description: "Batch data set with the extended rule: load and temperature combined, ambient and humidity combined, machine age.",
			Policy:      telemetry.PolicyExtended,
			FeatureSet:  string(telemetry.FeaturesFull),
			SampleCount: 1000,
			Thresholds:  &config.ThresholdConfig{Temperature: 80, Vibration: 50, Load: 90},
		},
		"twin-channel": {
			Name:        "Twin channel",
			Description: "Temperature and vibration only, with extra measurement noise and a 70/15/15 split with 5-fold cross validation.",
			Policy:      telemetry.PolicyCore,
			FeatureSet:  string(telemetry.FeaturesCore),
			SampleCount: 1000,
			NoiseStdDev: 2,
			Thresholds:  &config.ThresholdConfig{Temperature: 80, Vibration: 50, Load: 90},
			Model: &ModelOverride{
				Trees:              100,
				MaxDepth:           10,
				MinSamplesSplit:    5,
				MinSamplesLeaf:     4,
				TestFraction:       0.15,
				ValidationFraction: 0.15,
				CVFolds:            5,
			},
		},
	}
}
