package ml

import (
	"errors"
	"fmt"
)

// Regressor types understood by the artifact loader.
const (
	RegressorLinear       = "linear"
	RegressorTreeEnsemble = "tree_ensemble"
)

// RegressorSpec is the serialized form of a fitted regressor.
type RegressorSpec struct {
	Type string `json:"type"`

	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	Aggregation  string           `json:"aggregation,omitempty"`
	BaseScore    float64          `json:"base_score,omitempty"`
	LearningRate *float64         `json:"learning_rate,omitempty"`
	Trees        []RegressionTree `json:"trees,omitempty"`
}

func buildRegressor(spec RegressorSpec) (Regressor, error) {
	switch spec.Type {
	case RegressorLinear:
		return &LinearRegressor{
			Intercept:    spec.Intercept,
			Coefficients: spec.Coefficients,
		}, nil
	case RegressorTreeEnsemble:
		rate := 1.0
		if spec.LearningRate != nil {
			rate = *spec.LearningRate
		}
		aggregation := spec.Aggregation
		if aggregation == "" {
			aggregation = AggregateMean
		}
		return &TreeEnsemble{
			Aggregation:  aggregation,
			BaseScore:    spec.BaseScore,
			LearningRate: rate,
			Trees:        spec.Trees,
		}, nil
	case "":
		return nil, errors.New("regressor type is required")
	default:
		return nil, fmt.Errorf("unsupported regressor type %q", spec.Type)
	}
}
