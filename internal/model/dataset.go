// Feature extraction and deterministic train/validation/test partitioning
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"predictive-sim/internal/telemetry"
)

// ErrEmptyDataset is returned when there is nothing to train or evaluate on.
var ErrEmptyDataset = errors.New("empty dataset")

// Dataset is a feature matrix with its failure labels.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []bool
}

// NewDataset extracts the feature columns selected by fs and the failure target.
func NewDataset(samples []telemetry.Sample, fs telemetry.FeatureSet) (*Dataset, error) {
	cols, err := fs.Channels()
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		Features: cols,
		X:        make([][]float64, len(samples)),
		Y:        make([]bool, len(samples)),
	}
	for i, s := range samples {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = s.Value(c)
		}
		ds.X[i] = row
		ds.Y[i] = s.Failure
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Y) }

// SingleClass reports whether every label is the same.
func (d *Dataset) SingleClass() bool {
	for _, y := range d.Y {
		if y != d.Y[0] {
			return false
		}
	}
	return true
}

func (d *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{Features: d.Features, X: make([][]float64, len(idx)), Y: make([]bool, len(idx))}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

// SplitOptions controls Split. Fractions are of the whole dataset.
type SplitOptions struct {
	TestFraction       float64
	ValidationFraction float64
	Seed               int64
}

// Partition holds disjoint train, validation and test sets. Validation is
// empty when ValidationFraction is 0.
type Partition struct {
	Train      *Dataset
	Validation *Dataset
	Test       *Dataset
}

// Split shuffles the rows with opts.Seed and partitions them. Each held-out
// set gets ceil(n*fraction) rows; the rest is used for training.
func (d *Dataset) Split(opts SplitOptions) (Partition, error) {
	if d.Len() == 0 {
		return Partition{}, ErrEmptyDataset
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		return Partition{}, fmt.Errorf("test fraction must be in (0,1), got %v", opts.TestFraction)
	}
	if opts.ValidationFraction < 0 || opts.TestFraction+opts.ValidationFraction >= 1 {
		return Partition{}, fmt.Errorf("validation fraction %v leaves no training rows", opts.ValidationFraction)
	}
	n := d.Len()
	nTest := int(math.Ceil(float64(n) * opts.TestFraction))
	nVal := int(math.Ceil(float64(n) * opts.ValidationFraction))
	if nTest+nVal >= n {
		return Partition{}, fmt.Errorf("%w: %d rows are too few to split", ErrEmptyDataset, n)
	}
	perm := rand.New(rand.NewSource(opts.Seed)).Perm(n)
	return Partition{
		Test:       d.subset(perm[:nTest]),
		Validation: d.subset(perm[nTest : nTest+nVal]),
		Train:      d.subset(perm[nTest+nVal:]),
	}, nil
}
