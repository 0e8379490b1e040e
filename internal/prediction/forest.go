package prediction

import "fmt"

// LeafFeature marks a leaf node.
const LeafFeature = -1

// Node is one decision tree node. Internal nodes send x[Feature] <= Threshold
// left. Leaves carry the class-1 probability in Value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

func (n Node) IsLeaf() bool {
	return n.Feature == LeafFeature
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) Predict(v Vector) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks that every child index points forward, so Predict always
// terminates, and that leaf values are probabilities.
func (t *Tree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidArtifact)
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			if n.Value < 0 || n.Value > 1 {
				return fmt.Errorf("%w: leaf %d value %v outside [0,1]", ErrInvalidArtifact, i, n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= NumFeatures {
			return fmt.Errorf("%w: node %d splits on unknown feature %d", ErrInvalidArtifact, i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("%w: node %d has bad child %d", ErrInvalidArtifact, i, child)
			}
		}
	}
	return nil
}

// Forest averages the class-1 probability of its trees.
type Forest struct {
	Trees []Tree
}

func NewForest(trees []Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for i := range trees {
		if err := trees[i].validate(); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{Trees: trees}, nil
}

func (f *Forest) PredictProba(v Vector) float64 {
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(v)
	}
	p := sum / float64(len(f.Trees))

	// Guard against float drift past the unit interval.
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
