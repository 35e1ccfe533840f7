// Package forest implements a random-forest regressor: bagged CART regression
// trees whose predictions are averaged. A fitted Regressor is immutable and safe
// for concurrent Predict calls.
package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Params struct {
	Trees           int   `json:"trees"`
	Seed            int64 `json:"seed"`
	MaxDepth        int   `json:"max_depth"`    // 0 grows until leaves are pure
	MaxFeatures     int   `json:"max_features"` // 0 considers every feature
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
}

// DefaultParams are 100 fully grown trees with a fixed seed.
func DefaultParams() Params {
	return Params{
		Trees:           100,
		Seed:            42,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

type Regressor struct {
	Features []string `json:"features"`
	Params   Params   `json:"params"`
	Samples  int      `json:"samples"`
	Trees    []Tree   `json:"trees"`
}

func New(params Params) *Regressor {
	if params.Trees <= 0 {
		params.Trees = DefaultParams().Trees
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	return &Regressor{Params: params}
}

// Fit trains the forest on x (one row per sample, columns named by features) and
// targets y. The same seed and data always produce the same forest.
func (r *Regressor) Fit(features []string, x [][]float64, y []float64) error {
	if len(x) == 0 || len(y) == 0 {
		return errors.New("features or targets empty")
	}
	if len(x) != len(y) {
		return fmt.Errorf("features and targets size mismatch: %d != %d", len(x), len(y))
	}
	if floats.HasNaN(y) {
		return errors.New("targets contain NaN")
	}
	for i, row := range x {
		if len(row) != len(features) {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(features))
		}
		if floats.HasNaN(row) {
			return fmt.Errorf("row %d contains NaN", i)
		}
	}

	rng := rand.New(rand.NewSource(r.Params.Seed))
	trees := make([]Tree, 0, r.Params.Trees)
	for t := 0; t < r.Params.Trees; t++ {
		// bootstrap sample, drawn with replacement
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}

		b := &treeBuilder{x: x, y: y, params: r.Params, rng: rng}
		b.build(sample, 0)
		trees = append(trees, Tree{Nodes: b.nodes})
	}

	r.Features = append([]string(nil), features...)
	r.Samples = len(x)
	r.Trees = trees
	return nil
}

// Predict returns the mean of the trees' predictions for one row.
func (r *Regressor) Predict(x []float64) (float64, error) {
	if len(r.Trees) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(x) != len(r.Features) {
		return 0, fmt.Errorf("got %d features, want %d", len(x), len(r.Features))
	}

	preds := make([]float64, len(r.Trees))
	for i := range r.Trees {
		p, err := r.Trees[i].predict(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		preds[i] = p
	}

	return stat.Mean(preds, nil), nil
}

func (r *Regressor) Encode() ([]byte, error) {
	if len(r.Trees) == 0 {
		return nil, errors.New("model not trained")
	}
	return json.Marshal(r)
}

// Decode restores a Regressor produced by Encode and checks its structure.
func Decode(data []byte) (*Regressor, error) {
	var r Regressor
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding forest: %w", err)
	}
	if len(r.Trees) == 0 {
		return nil, errors.New("decoded forest has no trees")
	}
	for i := range r.Trees {
		if len(r.Trees[i].Nodes) == 0 {
			return nil, fmt.Errorf("tree %d is empty", i)
		}
		if err := r.Trees[i].validate(len(r.Features)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &r, nil
}
