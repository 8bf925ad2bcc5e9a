package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type LinearRegressor struct {
	Intercept    float64
	Coefficients []float64
}

func (lr *LinearRegressor) Kind() string { return RegressorLinear }

func (lr *LinearRegressor) Validate(width int) error {
	if len(lr.Coefficients) != width {
		return fmt.Errorf("linear regressor has %d coefficients, encoded width is %d", len(lr.Coefficients), width)
	}
	if math.IsNaN(lr.Intercept) || math.IsInf(lr.Intercept, 0) {
		return errors.New("intercept must be finite")
	}
	for _, c := range lr.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.New("coefficients must be finite")
		}
	}
	return nil
}

func (lr *LinearRegressor) Predict(features []float64) (float64, error) {
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(lr.Coefficients), len(features))
	}
	return lr.Intercept + floats.Dot(lr.Coefficients, features), nil
}
