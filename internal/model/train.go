package model

import (
	"fmt"

	"predictive-sim/internal/config"
	"predictive-sim/internal/telemetry"
)

// CrossValidate returns the mean accuracy over k contiguous folds.
func CrossValidate(ds *Dataset, p Params, folds int) (float64, error) {
	if folds < 2 {
		return 0, fmt.Errorf("cross validation needs at least 2 folds, got %d", folds)
	}
	n := ds.Len()
	if n < folds {
		return 0, fmt.Errorf("%w: %d rows for %d folds", ErrEmptyDataset, n, folds)
	}
	var total float64
	start := 0
	for k := 0; k < folds; k++ {
		size := n / folds
		if k < n%folds {
			size++
		}
		var trainIdx, testIdx []int
		for i := 0; i < n; i++ {
			if i >= start && i < start+size {
				testIdx = append(testIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		start += size
		test := ds.subset(testIdx)
		f, err := Fit(ds.subset(trainIdx), p)
		if err != nil {
			return 0, err
		}
		total += Accuracy(f.Predict(test.X), test.Y)
	}
	return total / float64(folds), nil
}

// Options configures the Train pipeline.
type Options struct {
	Features telemetry.FeatureSet
	Split    SplitOptions
	Params   Params
	// CVFolds enables k-fold cross validation on the training set when >= 2.
	CVFolds int
}

// DefaultOptions matches the dashboard trainer: full features and an 80/20 split.
func DefaultOptions() Options {
	return Options{
		Features: telemetry.FeaturesFull,
		Split:    SplitOptions{TestFraction: 0.2, Seed: 42},
		Params:   DefaultParams(),
	}
}

// OptionsFromConfig builds trainer options from the file configuration.
func OptionsFromConfig(c *config.SimulationConfig) Options {
	m := c.Model
	return Options{
		Features: telemetry.FeatureSet(c.FeatureSet),
		Split: SplitOptions{
			TestFraction:       m.TestFraction,
			ValidationFraction: m.ValidationFraction,
			Seed:               m.Seed,
		},
		Params: Params{
			Trees:           m.Trees,
			MaxDepth:        m.MaxDepth,
			MinSamplesSplit: m.MinSamplesSplit,
			MinSamplesLeaf:  m.MinSamplesLeaf,
			Seed:            m.Seed,
		},
		CVFolds: m.CVFolds,
	}
}

// Result reports one training run.
type Result struct {
	Features           []string `json:"features"`
	TrainSize          int      `json:"train_size"`
	ValidationSize     int      `json:"validation_size"`
	TestSize           int      `json:"test_size"`
	Accuracy           float64  `json:"accuracy"`
	ValidationAccuracy *float64 `json:"validation_accuracy,omitempty"`
	CVAccuracy         *float64 `json:"cv_accuracy,omitempty"`
	// PredictedFailure is set when any test row is classified as a failure.
	PredictedFailure bool `json:"predicted_failure"`
	// SingleClass is set when the training labels contain one class only; the
	// forest then always predicts that class.
	SingleClass bool    `json:"single_class"`
	Forest      *Forest `json:"-"`
}

// Train fits a forest on samples and evaluates it on held-out rows.
func Train(samples []telemetry.Sample, opts Options) (Result, error) {
	if len(samples) == 0 {
		return Result{}, ErrEmptyDataset
	}
	ds, err := NewDataset(samples, opts.Features)
	if err != nil {
		return Result{}, err
	}
	part, err := ds.Split(opts.Split)
	if err != nil {
		return Result{}, err
	}
	forest, err := Fit(part.Train, opts.Params)
	if err != nil {
		return Result{}, err
	}
	pred := forest.Predict(part.Test.X)
	res := Result{
		Features:       ds.Features,
		TrainSize:      part.Train.Len(),
		ValidationSize: part.Validation.Len(),
		TestSize:       part.Test.Len(),
		Accuracy:       Accuracy(pred, part.Test.Y),
		SingleClass:    part.Train.SingleClass(),
		Forest:         forest,
	}
	for _, p := range pred {
		if p {
			res.PredictedFailure = true
			break
		}
	}
	if part.Validation.Len() > 0 {
		v := Accuracy(forest.Predict(part.Validation.X), part.Validation.Y)
		res.ValidationAccuracy = &v
	}
	if opts.CVFolds >= 2 {
		cv, err := CrossValidate(part.Train, opts.Params, opts.CVFolds)
		if err != nil {
			return Result{}, fmt.Errorf("cross validation: %w", err)
		}
		res.CVAccuracy = &cv
	}
	return res, nil
}
