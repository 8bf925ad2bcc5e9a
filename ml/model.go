package ml

// Regressor maps an encoded feature vector to a value in target space.
type Regressor interface {
	Predict(features []float64) (float64, error)
	// Validate checks the fitted parameters against the encoded input width.
	Validate(width int) error
	Kind() string
}

// YieldPredictor is the serving contract used by the transport layers.
type YieldPredictor interface {
	Predict(req Request) (Result, error)
}

// Result is a prediction in linear yield space (tons/hectare).
type Result struct {
	Yield float64 `json:"yield"`
	// Raw is the regressor output before the inverse target transform.
	Raw float64 `json:"raw"`
}
