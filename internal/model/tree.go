package model

import (
	"math/rand"
	"sort"
)

// node is either a leaf (left == nil) or an axis-aligned split.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	prob      float64
}

type tree struct {
	root *node
}

type treeBuilder struct {
	ds     *Dataset
	params Params
	rand   *rand.Rand
	mtry   int
}

// buildTree fits a CART classification tree on the rows idx of ds using Gini
// impurity. Each split considers mtry randomly chosen features.
func buildTree(ds *Dataset, idx []int, p Params, r *rand.Rand) *tree {
	b := &treeBuilder{ds: ds, params: p, rand: r, mtry: maxFeatures(len(ds.Features))}
	return &tree{root: b.build(idx, 0)}
}

func (b *treeBuilder) build(idx []int, depth int) *node {
	pos := 0
	for _, i := range idx {
		if b.ds.Y[i] {
			pos++
		}
	}
	leaf := &node{prob: float64(pos) / float64(len(idx))}
	if pos == 0 || pos == len(idx) {
		return leaf
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return leaf
	}
	if len(idx) < b.params.MinSamplesSplit {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return leaf
	}
	var left, right []int
	for _, i := range idx {
		if b.ds.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
		prob:      leaf.prob,
	}
}

func (b *treeBuilder) bestSplit(idx []int, pos int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	best := gini(pos, n)
	minLeaf := b.params.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	sorted := make([]int, n)
	for _, f := range b.rand.Perm(len(b.ds.Features))[:b.mtry] {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.ds.X[sorted[i]][f] < b.ds.X[sorted[j]][f] })

		leftPos := 0
		for k := 0; k < n-1; k++ {
			if b.ds.Y[sorted[k]] {
				leftPos++
			}
			nl := k + 1
			cur, next := b.ds.X[sorted[k]][f], b.ds.X[sorted[k+1]][f]
			if cur == next || nl < minLeaf || n-nl < minLeaf {
				continue
			}
			nr := n - nl
			score := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(pos-leftPos, nr)) / float64(n)
			if score < best {
				best, feature, threshold, ok = score, f, (cur+next)/2, true
			}
		}
	}
	return feature, threshold, ok
}

func (t *tree) prob(x []float64) float64 {
	n := t.root
	for n.left != nil {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
