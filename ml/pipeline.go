package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
)

// Artifact is the on-disk form of a fitted pipeline.
type Artifact struct {
	Version         int             `json:"version"`
	Columns         []string        `json:"columns"`
	TargetTransform string          `json:"target_transform,omitempty"`
	Encoder         EncoderSpec     `json:"encoder"`
	Scaler          *StandardScaler `json:"scaler,omitempty"`
	Regressor       RegressorSpec   `json:"regressor"`
}

type EncoderSpec struct {
	Categories map[string][]string `json:"categories"`
}

// Pipeline is a compiled, immutable artifact: encoder, optional scaler,
// regressor and the declared target transform.
type Pipeline struct {
	version   int
	columns   []string
	target    TargetTransform
	defaulted bool
	encoder   *OneHotEncoder
	scaler    *StandardScaler
	regressor Regressor
}

// Metadata describes a loaded pipeline.
type Metadata struct {
	Version         int             `json:"version"`
	Columns         []string        `json:"columns"`
	TargetTransform TargetTransform `json:"target_transform"`
	Regressor       string          `json:"regressor"`
	EncodedWidth    int             `json:"encoded_width"`
	Scaled          bool            `json:"scaled"`
}

func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, artifactError("pipeline", err, "artifact not readable")
	}
	return ParsePipeline(data)
}

func ParsePipeline(data []byte) (*Pipeline, error) {
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, artifactError("pipeline", err, "artifact corrupt")
	}
	return NewPipeline(art)
}

// NewPipeline compiles an artifact and checks it against the serving schema.
func NewPipeline(art Artifact) (*Pipeline, error) {
	if !slices.Equal(art.Columns, FeatureNames()) {
		return nil, artifactError("pipeline", nil, "column schema %v does not match %v", art.Columns, FeatureNames())
	}

	p := &Pipeline{
		version: art.Version,
		columns: append([]string(nil), art.Columns...),
	}

	if art.TargetTransform == "" {
		p.target = DefaultTargetTransform
		p.defaulted = true
	} else {
		target, err := ParseTargetTransform(art.TargetTransform)
		if err != nil {
			return nil, artifactError("pipeline", err, "bad target transform")
		}
		p.target = target
	}

	encoder, err := NewOneHotEncoder(CategoricalNames(), art.Encoder.Categories)
	if err != nil {
		return nil, artifactError("pipeline", err, "bad encoder")
	}
	p.encoder = encoder

	if art.Scaler != nil {
		if err := art.Scaler.validate(len(NumericNames())); err != nil {
			return nil, artifactError("pipeline", err, "bad scaler")
		}
		p.scaler = art.Scaler
	}

	regressor, err := buildRegressor(art.Regressor)
	if err != nil {
		return nil, artifactError("pipeline", err, "bad regressor")
	}
	if err := regressor.Validate(p.EncodedWidth()); err != nil {
		return nil, artifactError("pipeline", err, "regressor does not fit encoded schema")
	}
	p.regressor = regressor

	return p, nil
}

// SaveArtifact writes an artifact as indented JSON.
func SaveArtifact(path string, art Artifact) error {
	payload, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (p *Pipeline) EncodedWidth() int {
	return p.encoder.Width() + len(NumericNames())
}

func (p *Pipeline) TargetTransform() TargetTransform {
	return p.target
}

// TargetDefaulted reports whether the artifact omitted target_transform.
func (p *Pipeline) TargetDefaulted() bool {
	return p.defaulted
}

func (p *Pipeline) Encoder() *OneHotEncoder {
	return p.encoder
}

func (p *Pipeline) Metadata() Metadata {
	return Metadata{
		Version:         p.version,
		Columns:         append([]string(nil), p.columns...),
		TargetTransform: p.target,
		Regressor:       p.regressor.Kind(),
		EncodedWidth:    p.EncodedWidth(),
		Scaled:          p.scaler != nil,
	}
}

// Encode turns a feature row into the regressor's input vector.
func (p *Pipeline) Encode(row FeatureRow) ([]float64, error) {
	vector := make([]float64, 0, p.EncodedWidth())
	vector, err := p.encoder.Encode(vector, row.Categorical())
	if err != nil {
		return nil, err
	}
	numeric := row.Numeric()
	if p.scaler != nil {
		numeric = p.scaler.Transform(numeric)
	}
	return append(vector, numeric...), nil
}

// Raw returns the regressor output for a row, in target space.
func (p *Pipeline) Raw(row FeatureRow) (float64, error) {
	vector, err := p.Encode(row)
	if err != nil {
		return 0, err
	}
	raw, err := p.regressor.Predict(vector)
	if err != nil {
		return 0, fmt.Errorf("regressor: %w", err)
	}
	return raw, nil
}

// Invert maps a raw output to yield, floored at zero.
func (p *Pipeline) Invert(raw float64) (float64, error) {
	if math.IsNaN(raw) {
		return 0, invalidMagnitude("prediction", raw, "model produced no finite value for these inputs")
	}
	y := p.target.Inverse(raw)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, invalidMagnitude("prediction", raw, "inputs are outside the trained model's valid domain")
	}
	return math.Max(y, 0), nil
}
