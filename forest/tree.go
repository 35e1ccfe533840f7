package forest

import (
	"errors"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/stat"
)

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// Tree is a regression tree flattened in depth-first order; node 0 is the root.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t *Tree) predict(x []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("empty tree")
	}

	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(x) {
			return 0, errors.New("feature index out of range")
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (t *Tree) validate(features int) error {
	for i, node := range t.Nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= features {
			return errors.New("feature index out of range")
		}
		// children always come after their parent
		if node.LeftChild <= i || node.LeftChild >= len(t.Nodes) ||
			node.RightChild <= i || node.RightChild >= len(t.Nodes) {
			return errors.New("child index out of range")
		}
	}
	return nil
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params Params
	rng    *rand.Rand
	nodes  []TreeNode
}

func (b *treeBuilder) build(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1})

	ys := make([]float64, len(idx))
	for i, row := range idx {
		ys[i] = b.y[row]
	}
	value := stat.Mean(ys, nil)

	if len(idx) < b.params.MinSamplesSplit ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		sse(ys) <= 1e-12 {
		b.nodes[pos] = leaf(value)
		return pos
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[pos] = leaf(value)
		return pos
	}

	var left, right []int
	for _, row := range idx {
		if b.x[row][feature] <= threshold {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		b.nodes[pos] = leaf(value)
		return pos
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[pos] = TreeNode{
		FeatureIdx: feature,
		Threshold:  threshold,
		LeftChild:  l,
		RightChild: r,
		Value:      value,
	}
	return pos
}

// bestSplit scans every candidate feature for the threshold with the lowest
// summed squared error of the two children.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	features := b.rng.Perm(len(b.x[0]))
	if b.params.MaxFeatures > 0 && b.params.MaxFeatures < len(features) {
		features = features[:b.params.MaxFeatures]
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestErr := math.Inf(1)

	sorted := slices.Clone(idx)
	n := len(sorted)
	for _, f := range features {
		slices.SortStableFunc(sorted, func(a, c int) int {
			switch {
			case b.x[a][f] < b.x[c][f]:
				return -1
			case b.x[a][f] > b.x[c][f]:
				return 1
			}
			return 0
		})

		var totalSum, totalSq float64
		for _, row := range sorted {
			totalSum += b.y[row]
			totalSq += b.y[row] * b.y[row]
		}

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := b.y[sorted[k]]
			leftSum += v
			leftSq += v * v

			nl := k + 1
			nr := n - nl
			if nl < b.params.MinSamplesLeaf || nr < b.params.MinSamplesLeaf {
				continue
			}
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			e := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if e < bestErr {
				bestErr = e
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature != -1
}

func leaf(value float64) TreeNode {
	return TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      value,
		IsLeaf:     true,
	}
}

func sse(ys []float64) float64 {
	if len(ys) < 2 {
		return 0
	}
	return stat.Variance(ys, nil) * float64(len(ys)-1)
}
