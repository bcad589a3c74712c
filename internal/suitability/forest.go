package suitability

import (
	"fmt"
	"math"
	"math/rand"
)

// TreeNode is one node of a regression tree. Leaves have Left == nil.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     float64   `json:"value"`
}

// Forest is a bagged ensemble of regression trees with impurity-based
// feature importances accumulated during training.
type Forest struct {
	Trees       []*TreeNode `json:"trees"`
	Importances []float64   `json:"importances"` // per feature, normalized, non-negative
	NumFeatures int         `json:"num_features"`
}

// ForestConfig controls ensemble training.
type ForestConfig struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	// FeatureSubset is the number of candidate features per split;
	// 0 means ceil(sqrt(num features)).
	FeatureSubset int
}

// DefaultForestConfig mirrors the training setup of the persisted
// production model: 100 trees, depth 10.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{NumTrees: 100, MaxDepth: 10, MinSamplesSplit: 2}
}

// TrainForest fits a bagged regression forest. All randomness (bootstrap
// sampling, feature subsets) flows from rng, so a fixed seed yields an
// identical model.
func TrainForest(x [][]float64, y []float64, cfg ForestConfig, rng *rand.Rand) *Forest {
	numFeatures := len(x[0])
	subset := cfg.FeatureSubset
	if subset <= 0 {
		subset = int(math.Ceil(math.Sqrt(float64(numFeatures))))
	}

	f := &Forest{
		Trees:       make([]*TreeNode, 0, cfg.NumTrees),
		Importances: make([]float64, numFeatures),
		NumFeatures: numFeatures,
	}

	n := len(x)
	for t := 0; t < cfg.NumTrees; t++ {
		// Bootstrap sample with replacement.
		sampleIdx := make([]int, n)
		for i := range sampleIdx {
			sampleIdx[i] = rng.Intn(n)
		}
		tree := growTree(x, y, sampleIdx, cfg, subset, 0, rng, f.Importances)
		f.Trees = append(f.Trees, tree)
	}

	// Normalize accumulated impurity decreases to sum to 1.
	var total float64
	for _, imp := range f.Importances {
		total += imp
	}
	if total > 0 {
		for i := range f.Importances {
			f.Importances[i] /= total
		}
	}
	return f
}

// Validate checks the structural integrity of a deserialized forest:
// at least one tree, a positive feature count, and every split node
// referencing an in-range feature with both children present.
func (f *Forest) Validate() error {
	if f.NumFeatures <= 0 {
		return fmt.Errorf("forest has no feature count")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i, tree := range f.Trees {
		if tree == nil {
			return fmt.Errorf("tree %d is nil", i)
		}
		if err := validateTree(tree, f.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func validateTree(node *TreeNode, numFeatures int) error {
	if node.Left == nil && node.Right == nil {
		return nil
	}
	if node.Left == nil || node.Right == nil {
		return fmt.Errorf("split node with a single child")
	}
	if node.Feature < 0 || node.Feature >= numFeatures {
		return fmt.Errorf("split on feature %d, want within [0, %d)", node.Feature, numFeatures)
	}
	if err := validateTree(node.Left, numFeatures); err != nil {
		return err
	}
	return validateTree(node.Right, numFeatures)
}

// Predict averages the per-tree predictions for one feature vector.
func (f *Forest) Predict(vector []float64) float64 {
	var sum float64
	for _, tree := range f.Trees {
		sum += predictTree(tree, vector)
	}
	return sum / float64(len(f.Trees))
}

func predictTree(node *TreeNode, vector []float64) float64 {
	for node.Left != nil {
		if vector[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// growTree recursively fits one tree on the given sample indices,
// accumulating impurity decreases into importances.
func growTree(x [][]float64, y []float64, idx []int, cfg ForestConfig, subset, depth int, rng *rand.Rand, importances []float64) *TreeNode {
	mean, variance := meanVariance(y, idx)
	if depth >= cfg.MaxDepth || len(idx) < cfg.MinSamplesSplit || variance == 0 {
		return &TreeNode{Value: mean}
	}

	feature, threshold, gain, leftIdx, rightIdx := bestSplit(x, y, idx, subset, variance, rng)
	if feature < 0 {
		return &TreeNode{Value: mean}
	}

	importances[feature] += gain * float64(len(idx))

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(x, y, leftIdx, cfg, subset, depth+1, rng, importances),
		Right:     growTree(x, y, rightIdx, cfg, subset, depth+1, rng, importances),
		Value:     mean,
	}
}

// bestSplit searches a random feature subset for the split with the
// largest variance reduction. Returns feature -1 if nothing improves.
func bestSplit(x [][]float64, y []float64, idx []int, subset int, parentVar float64, rng *rand.Rand) (int, float64, float64, []int, []int) {
	numFeatures := len(x[0])
	candidates := rng.Perm(numFeatures)[:subset]

	bestFeature := -1
	var bestThreshold, bestGain float64
	var bestLeft, bestRight []int

	for _, feature := range candidates {
		thresholds := candidateThresholds(x, idx, feature, rng)
		for _, threshold := range thresholds {
			var left, right []int
			for _, i := range idx {
				if x[i][feature] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			_, leftVar := meanVariance(y, left)
			_, rightVar := meanVariance(y, right)
			weighted := (float64(len(left))*leftVar + float64(len(right))*rightVar) / float64(len(idx))
			gain := parentVar - weighted
			if gain > bestGain {
				bestFeature = feature
				bestThreshold = threshold
				bestGain = gain
				bestLeft = left
				bestRight = right
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestLeft, bestRight
}

// candidateThresholds draws up to 10 random cut points from the sample
// values of one feature. Randomized splitting keeps training cost
// bounded without materially hurting ensemble quality.
func candidateThresholds(x [][]float64, idx []int, feature int, rng *rand.Rand) []float64 {
	const maxCandidates = 10
	count := len(idx)
	if count > maxCandidates {
		count = maxCandidates
	}
	thresholds := make([]float64, count)
	for i := 0; i < count; i++ {
		thresholds[i] = x[idx[rng.Intn(len(idx))]][feature]
	}
	return thresholds
}

func meanVariance(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))

	var variance float64
	for _, i := range idx {
		diff := y[i] - mean
		variance += diff * diff
	}
	return mean, variance / float64(len(idx))
}
