package training

import (
	"math/rand"
	"sort"

	"github.com/OldStager01/healthcare-records/internal/prediction"
)

// TreeConfig bounds the growth of one CART tree.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxFeatures is the number of features tried per split; 0 means
	// sqrt(NumFeatures).
	MaxFeatures int
}

type treeBuilder struct {
	cfg         TreeConfig
	x           []prediction.Vector
	y           []int
	classWeight [2]float64
	rng         *rand.Rand

	nodes       []prediction.Node
	importances prediction.Vector
}

type split struct {
	feature   int
	threshold float64
	cost      float64
}

// buildTree grows a gini tree over the rows in sample (which may repeat rows).
// It returns the tree and the weighted impurity decrease per feature.
func buildTree(x []prediction.Vector, y []int, sample []int, classWeight [2]float64, cfg TreeConfig, rng *rand.Rand) (prediction.Tree, prediction.Vector) {
	b := &treeBuilder{
		cfg:         cfg,
		x:           x,
		y:           y,
		classWeight: classWeight,
		rng:         rng,
	}
	b.build(sample, 0)
	return prediction.Tree{Nodes: b.nodes}, b.importances
}

func (b *treeBuilder) weights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.classWeight[1]
		} else {
			w0 += b.classWeight[0]
		}
	}
	return w0, w1
}

// build appends the subtree for idx in preorder, so children always have a
// larger index than their parent.
func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, prediction.Node{Feature: prediction.LeafFeature})

	w0, w1 := b.weights(idx)
	total := w0 + w1
	if total > 0 {
		b.nodes[id].Value = w1 / total
	}

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || w0 == 0 || w1 == 0 {
		return id
	}

	best, ok := b.bestSplit(idx, w0, w1)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importances[best.feature] += total*gini(w0, w1) - best.cost

	b.nodes[id] = prediction.Node{Feature: best.feature, Threshold: best.threshold}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit tries a random subset of features and returns the threshold that
// minimises the weighted gini impurity of the children.
func (b *treeBuilder) bestSplit(idx []int, w0, w1 float64) (split, bool) {
	maxFeatures := b.cfg.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > prediction.NumFeatures {
		maxFeatures = defaultMaxFeatures()
	}

	parentCost := (w0 + w1) * gini(w0, w1)
	best := split{cost: parentCost}
	found := false

	sorted := make([]int, len(idx))
	for _, f := range b.rng.Perm(prediction.NumFeatures)[:maxFeatures] {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		var l0, l1 float64
		for k := 0; k < len(sorted)-1; k++ {
			if b.y[sorted[k]] == 1 {
				l1 += b.classWeight[1]
			} else {
				l0 += b.classWeight[0]
			}

			nLeft := k + 1
			if nLeft < b.cfg.MinSamplesLeaf || len(sorted)-nLeft < b.cfg.MinSamplesLeaf {
				continue
			}

			a, c := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if a == c {
				continue
			}

			r0, r1 := w0-l0, w1-l1
			cost := (l0+l1)*gini(l0, l1) + (r0+r1)*gini(r0, r1)
			if cost < best.cost-1e-12 {
				best = split{feature: f, threshold: (a + c) / 2, cost: cost}
				found = true
			}
		}
	}

	return best, found
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total == 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}
