package ml

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// RegressionTree is a fitted tree stored as a flat node array with the root
// at index 0. Children always sit after their parent.
type RegressionTree []TreeNode

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

func (t RegressionTree) Predict(features []float64) (float64, error) {
	if len(t) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	for {
		node := t[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (t RegressionTree) validate(width int) error {
	if len(t) == 0 {
		return errors.New("empty tree")
	}
	for i, node := range t {
		if node.IsLeaf {
			if math.IsNaN(node.Value) || math.IsInf(node.Value, 0) {
				return fmt.Errorf("node %d: leaf value must be finite", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= width {
			return fmt.Errorf("node %d: feature index %d outside encoded width %d", i, node.FeatureIdx, width)
		}
		if node.LeftChild <= i || node.LeftChild >= len(t) || node.RightChild <= i || node.RightChild >= len(t) {
			return fmt.Errorf("node %d: children (%d, %d) out of range", i, node.LeftChild, node.RightChild)
		}
	}
	return nil
}

// Ensemble aggregation modes.
const (
	AggregateMean = "mean"
	AggregateSum  = "sum"
)

// TreeEnsemble covers both bagged forests (mean of trees) and boosted
// models (base score plus shrunken sum of trees).
type TreeEnsemble struct {
	Aggregation  string
	BaseScore    float64
	LearningRate float64
	Trees        []RegressionTree
}

func (e *TreeEnsemble) Kind() string { return RegressorTreeEnsemble }

func (e *TreeEnsemble) Validate(width int) error {
	if len(e.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	switch e.Aggregation {
	case AggregateMean, AggregateSum:
	default:
		return fmt.Errorf("unsupported aggregation %q", e.Aggregation)
	}
	for i, tree := range e.Trees {
		if err := tree.validate(width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (e *TreeEnsemble) Predict(features []float64) (float64, error) {
	outputs := make([]float64, len(e.Trees))
	for i, tree := range e.Trees {
		v, err := tree.Predict(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		outputs[i] = v
	}

	if e.Aggregation == AggregateMean {
		return stats.Mean(outputs)
	}
	total, err := stats.Sum(outputs)
	if err != nil {
		return 0, err
	}
	return e.BaseScore + e.LearningRate*total, nil
}
