// Package mltest builds small, deterministic artifacts for tests.
package mltest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"cropyield/ml"
)

var (
	Crops   = []string{"Maize", "Rice", "Wheat"}
	Seasons = []string{"Kharif", "Rabi", "Whole Year"}
	States  = []string{"Assam", "Karnataka", "Punjab"}
)

// Weights of the fixture linear model, keyed by category or numeric column.
var Weights = map[string]float64{
	"Rice": 0.2, "Wheat": 0.1, "Maize": 0.0, "Jute": -0.1,
	"Kharif": 0.05, "Rabi": 0.0, "Whole Year": -0.05,
	"Assam": 0.0, "Karnataka": 0.1, "Punjab": 0.3,
	ml.ColumnArea:           -0.9,
	ml.ColumnFertilizer:     0.05,
	ml.ColumnPesticide:      0.02,
	ml.ColumnAnnualRainfall: 0.0001,
	ml.ColumnProduction:     0.95,
}

const Intercept = 0.1

// Encoder categories are a superset of the catalog: Jute was fitted but is
// absent from the reference table.
func encoderCategories() map[string][]string {
	return map[string][]string{
		ml.ColumnCrop:   {"Jute", "Maize", "Rice", "Wheat"},
		ml.ColumnSeason: {"Kharif", "Rabi", "Whole Year"},
		ml.ColumnState:  {"Assam", "Karnataka", "Punjab"},
	}
}

// LinearArtifact returns a log-target linear pipeline.
func LinearArtifact() ml.Artifact {
	cats := encoderCategories()
	var coefficients []float64
	for _, column := range ml.CategoricalNames() {
		for _, v := range cats[column] {
			coefficients = append(coefficients, Weights[v])
		}
	}
	for _, column := range ml.NumericNames() {
		coefficients = append(coefficients, Weights[column])
	}
	return ml.Artifact{
		Version:         1,
		Columns:         ml.FeatureNames(),
		TargetTransform: string(ml.TargetLog),
		Encoder:         ml.EncoderSpec{Categories: cats},
		Regressor: ml.RegressorSpec{
			Type:         ml.RegressorLinear,
			Intercept:    Intercept,
			Coefficients: coefficients,
		},
	}
}

// ExpectedRaw evaluates the fixture linear model by hand.
func ExpectedRaw(req ml.Request) float64 {
	row := ml.BuildFeatureRow(req)
	raw := Intercept + Weights[row.Crop] + Weights[row.Season] + Weights[row.State]
	for i, column := range ml.NumericNames() {
		raw += Weights[column] * row.Numeric()[i]
	}
	return raw
}

// TreeArtifact returns a boosted two-tree ensemble over the same encoder.
// Feature 3 is the Wheat indicator; feature 10 is log1p(area).
func TreeArtifact() ml.Artifact {
	art := LinearArtifact()
	rate := 0.5
	art.Regressor = ml.RegressorSpec{
		Type:         ml.RegressorTreeEnsemble,
		Aggregation:  ml.AggregateSum,
		BaseScore:    1.0,
		LearningRate: &rate,
		Trees: []ml.RegressionTree{
			{
				{FeatureIdx: 3, Threshold: 0.5, LeftChild: 1, RightChild: 2},
				{IsLeaf: true, Value: 0.4},
				{IsLeaf: true, Value: -0.2},
			},
			{
				{FeatureIdx: 10, Threshold: 2.0, LeftChild: 1, RightChild: 2},
				{IsLeaf: true, Value: 0.6},
				{IsLeaf: true, Value: 0.2},
			},
		},
	}
	return art
}

func NewCatalog() *ml.Catalog {
	return ml.NewCatalog(Crops, Seasons, States)
}

// NewPredictor builds an in-memory predictor from the linear fixture.
func NewPredictor(t testing.TB) *ml.Predictor {
	t.Helper()
	pipeline, err := ml.NewPipeline(LinearArtifact())
	if err != nil {
		t.Fatalf("fixture pipeline: %v", err)
	}
	predictor, err := ml.NewPredictor(NewCatalog(), pipeline)
	if err != nil {
		t.Fatalf("fixture predictor: %v", err)
	}
	return predictor
}

// WriteArtifacts writes the linear pipeline and a CSV reference table into
// dir and returns their paths.
func WriteArtifacts(t testing.TB, dir string) (pipelinePath, catalogPath string) {
	t.Helper()
	pipelinePath = filepath.Join(dir, "pipeline.json")
	if err := ml.SaveArtifact(pipelinePath, LinearArtifact()); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	catalogPath = filepath.Join(dir, "reference.csv")
	WriteCSV(t, catalogPath, ReferenceRows())
	return pipelinePath, catalogPath
}

// ReferenceRows mimics the training dataset: extra columns, repeats and
// padded season names.
func ReferenceRows() [][]string {
	return [][]string{
		{"Crop", "Crop_Year", "Season", "State", "Area", "Production", "Annual_Rainfall", "Fertilizer", "Pesticide", "Yield"},
		{"Rice", "1997", "Kharif     ", "Assam", "73814", "56708", "2051.4", "7024878.38", "22882.34", "0.79"},
		{"Wheat", "1998", "Rabi       ", "Punjab", "3350000", "13000000", "650.2", "318822250", "1038500", "3.88"},
		{"Maize", "1999", "Whole Year ", "Karnataka", "1100", "2500", "1266.7", "104027", "341", "2.27"},
		{"Rice", "2000", "Rabi       ", "Punjab", "2600000", "8700000", "600.1", "247436000", "806000", "3.34"},
	}
}

func WriteCSV(t testing.TB, path string, rows [][]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Request is the reference end-to-end scenario.
func Request() ml.Request {
	return ml.Request{
		Crop:           "Rice",
		Season:         "Kharif",
		State:          "Assam",
		Area:           100,
		Fertilizer:     500,
		Pesticide:      10,
		AnnualRainfall: 1200,
		Production:     300,
	}
}
