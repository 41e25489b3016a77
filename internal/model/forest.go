package model

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// Params configures a random forest.
type Params struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
}

// DefaultParams returns 100 trees of depth 10 seeded with 42.
func DefaultParams() Params {
	return Params{Trees: 100, MaxDepth: 10, MinSamplesSplit: 2, MinSamplesLeaf: 1, Seed: 42}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = d.MinSamplesSplit
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	return p
}

// Forest is a bagged ensemble of CART trees.
type Forest struct {
	Features []string
	trees    []*tree
}

// Fit trains a forest on ds. Each tree is fitted on a bootstrap sample with
// its own seed derived from p.Seed, so results do not depend on scheduling.
func Fit(ds *Dataset, p Params) (*Forest, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	p = p.withDefaults()
	seeds := make([]int64, p.Trees)
	master := rand.New(rand.NewSource(p.Seed))
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f := &Forest{Features: ds.Features, trees: make([]*tree, p.Trees)}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < runtime.GOMAXPROCS(0); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := rand.New(rand.NewSource(seeds[i]))
				idx := make([]int, ds.Len())
				for k := range idx {
					idx[k] = r.Intn(ds.Len())
				}
				f.trees[i] = buildTree(ds, idx, p, r)
			}
		}()
	}
	for i := range seeds {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return f, nil
}

// Probability returns the mean failure probability over all trees.
func (f *Forest) Probability(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.prob(x)
	}
	return sum / float64(len(f.trees))
}

// Predict classifies every row of x.
func (f *Forest) Predict(x [][]float64) []bool {
	out := make([]bool, len(x))
	for i, row := range x {
		out[i] = f.Probability(row) > 0.5
	}
	return out
}

// Accuracy is the fraction of pred equal to truth. Both slices must have the
// same length; empty input gives 0.
func Accuracy(pred, truth []bool) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

func maxFeatures(n int) int {
	m := int(math.Sqrt(float64(n)))
	if m < 1 {
		m = 1
	}
	return m
}
