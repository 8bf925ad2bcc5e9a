package ml_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropyield/ml"
	"cropyield/ml/mltest"
)

func TestPredictReferenceScenario(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	req := mltest.Request()

	result, err := predictor.Predict(req)
	require.NoError(t, err)

	raw := mltest.ExpectedRaw(req)
	assert.InDelta(t, raw, result.Raw, 1e-12)
	assert.InDelta(t, math.Exp(raw), result.Yield, 1e-9)

	again, err := predictor.Predict(req)
	require.NoError(t, err)
	assert.Equal(t, result, again)
}

func TestPredictAllZeroInputs(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	req := ml.Request{Crop: "Wheat", Season: "Rabi", State: "Punjab"}

	result, err := predictor.Predict(req)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(result.Yield) || math.IsInf(result.Yield, 0))
	assert.InDelta(t, math.Exp(mltest.Intercept+0.1+0.0+0.3), result.Yield, 1e-9)
}

func TestPredictEveryCatalogCombination(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	catalog := predictor.Catalog()
	for _, crop := range catalog.Crops() {
		for _, season := range catalog.Seasons() {
			for _, state := range catalog.States() {
				req := mltest.Request()
				req.Crop, req.Season, req.State = crop, season, state
				result, err := predictor.Predict(req)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, result.Yield, 0.0)
				assert.False(t, math.IsInf(result.Yield, 0))
			}
		}
	}
}

func TestPredictTrimsCategories(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	req := mltest.Request()
	req.Season = "  Kharif     "

	padded, err := predictor.Predict(req)
	require.NoError(t, err)
	plain, err := predictor.Predict(mltest.Request())
	require.NoError(t, err)
	assert.Equal(t, plain, padded)
}

func TestPredictInvalidCategory(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	cases := map[string]func(*ml.Request){
		ml.ColumnCrop:   func(r *ml.Request) { r.Crop = "Jute" },
		ml.ColumnSeason: func(r *ml.Request) { r.Season = "Monsoon" },
		ml.ColumnState:  func(r *ml.Request) { r.State = "" },
	}
	for field, mutate := range cases {
		req := mltest.Request()
		mutate(&req)

		result, err := predictor.Predict(req)
		require.Error(t, err, field)
		assert.ErrorIs(t, err, ml.ErrInvalidCategory)
		assert.Equal(t, ml.CodeInvalidCategory, ml.CodeOf(err))
		assert.Zero(t, result)

		var e *ml.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, field, e.Field)
	}
}

func TestPredictInvalidMagnitude(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	cases := map[string]func(*ml.Request){
		ml.ColumnArea:           func(r *ml.Request) { r.Area = -1 },
		ml.ColumnFertilizer:     func(r *ml.Request) { r.Fertilizer = -0.5 },
		ml.ColumnPesticide:      func(r *ml.Request) { r.Pesticide = -10 },
		ml.ColumnAnnualRainfall: func(r *ml.Request) { r.AnnualRainfall = -1200 },
		ml.ColumnProduction:     func(r *ml.Request) { r.Production = math.NaN() },
	}
	for field, mutate := range cases {
		req := mltest.Request()
		mutate(&req)

		result, err := predictor.Predict(req)
		require.Error(t, err, field)
		assert.ErrorIs(t, err, ml.ErrInvalidMagnitude)
		assert.NotErrorIs(t, err, ml.ErrInvalidCategory)
		assert.Zero(t, result)
	}
}

func TestPredictOverflowIsInvalidMagnitude(t *testing.T) {
	art := mltest.LinearArtifact()
	art.Regressor.Intercept = 800
	pipeline, err := ml.NewPipeline(art)
	require.NoError(t, err)
	predictor, err := ml.NewPredictor(mltest.NewCatalog(), pipeline)
	require.NoError(t, err)

	_, err = predictor.Predict(mltest.Request())
	assert.ErrorIs(t, err, ml.ErrInvalidMagnitude)
}

func TestPredictTreeEnsemble(t *testing.T) {
	pipeline, err := ml.NewPipeline(mltest.TreeArtifact())
	require.NoError(t, err)
	predictor, err := ml.NewPredictor(mltest.NewCatalog(), pipeline)
	require.NoError(t, err)

	result, err := predictor.Predict(mltest.Request())
	require.NoError(t, err)
	assert.InDelta(t, 1.3, result.Raw, 1e-12)
	assert.InDelta(t, math.Exp(1.3), result.Yield, 1e-9)

	wheat := mltest.Request()
	wheat.Crop = "Wheat"
	wheat.Area = 0
	result, err = predictor.Predict(wheat)
	require.NoError(t, err)
	assert.InDelta(t, 1.0+0.5*(-0.2+0.6), result.Raw, 1e-12)
}

func TestPipelineTargetTransform(t *testing.T) {
	art := mltest.LinearArtifact()
	art.TargetTransform = ""
	pipeline, err := ml.NewPipeline(art)
	require.NoError(t, err)
	assert.True(t, pipeline.TargetDefaulted())
	assert.Equal(t, ml.TargetLog, pipeline.TargetTransform())

	art.TargetTransform = "log1p"
	pipeline, err = ml.NewPipeline(art)
	require.NoError(t, err)
	predictor, err := ml.NewPredictor(mltest.NewCatalog(), pipeline)
	require.NoError(t, err)
	result, err := predictor.Predict(mltest.Request())
	require.NoError(t, err)
	assert.InDelta(t, math.Expm1(result.Raw), result.Yield, 1e-9)

	art.TargetTransform = "none"
	art.Regressor.Intercept = -100
	pipeline, err = ml.NewPipeline(art)
	require.NoError(t, err)
	predictor, err = ml.NewPredictor(mltest.NewCatalog(), pipeline)
	require.NoError(t, err)
	result, err = predictor.Predict(mltest.Request())
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Yield)

	art.TargetTransform = "boxcox"
	_, err = ml.NewPipeline(art)
	assert.ErrorIs(t, err, ml.ErrArtifactLoad)
}

func TestPipelineScaler(t *testing.T) {
	art := mltest.LinearArtifact()
	art.Scaler = &ml.StandardScaler{
		Mean:  []float64{0, 0, 0, 1000, 0},
		Scale: []float64{1, 1, 1, 0, 1},
	}
	pipeline, err := ml.NewPipeline(art)
	require.NoError(t, err)
	assert.True(t, pipeline.Metadata().Scaled)

	vector, err := pipeline.Encode(ml.BuildFeatureRow(mltest.Request()))
	require.NoError(t, err)
	require.Len(t, vector, pipeline.EncodedWidth())
	assert.Equal(t, 200.0, vector[13], "zero scale is treated as one")

	art.Scaler.Mean = art.Scaler.Mean[:2]
	_, err = ml.NewPipeline(art)
	assert.ErrorIs(t, err, ml.ErrArtifactLoad)
}

func TestPipelineSchemaMismatch(t *testing.T) {
	cases := map[string]func(*ml.Artifact){
		"column order": func(a *ml.Artifact) {
			a.Columns[3], a.Columns[4] = a.Columns[4], a.Columns[3]
		},
		"missing column": func(a *ml.Artifact) { a.Columns = a.Columns[:7] },
		"coefficient width": func(a *ml.Artifact) {
			a.Regressor.Coefficients = a.Regressor.Coefficients[1:]
		},
		"missing encoder block": func(a *ml.Artifact) { delete(a.Encoder.Categories, ml.ColumnState) },
		"unknown regressor":     func(a *ml.Artifact) { a.Regressor.Type = "svm" },
		"tree out of range": func(a *ml.Artifact) {
			*a = mltest.TreeArtifact()
			a.Regressor.Trees[0][0].FeatureIdx = 99
		},
	}
	for name, mutate := range cases {
		art := mltest.LinearArtifact()
		mutate(&art)
		_, err := ml.NewPipeline(art)
		assert.ErrorIs(t, err, ml.ErrArtifactLoad, name)
	}
}

func TestNewPredictorRejectsCatalogOutsideEncoder(t *testing.T) {
	pipeline, err := ml.NewPipeline(mltest.LinearArtifact())
	require.NoError(t, err)

	catalog := ml.NewCatalog(append(mltest.Crops, "Sugarcane"), mltest.Seasons, mltest.States)
	_, err = ml.NewPredictor(catalog, pipeline)
	assert.ErrorIs(t, err, ml.ErrArtifactLoad)
}

func TestLoadPredictorFromFiles(t *testing.T) {
	dir := t.TempDir()
	pipelinePath, catalogPath := mltest.WriteArtifacts(t, dir)

	predictor, err := ml.LoadPredictor(context.Background(), pipelinePath, catalogPath)
	require.NoError(t, err)
	assert.Equal(t, mltest.Crops, predictor.Catalog().Crops())

	result, err := predictor.Predict(mltest.Request())
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(mltest.ExpectedRaw(mltest.Request())), result.Yield, 1e-9)

	meta := predictor.Pipeline().Metadata()
	assert.Equal(t, ml.RegressorLinear, meta.Regressor)
	assert.Equal(t, 15, meta.EncodedWidth)
	assert.Equal(t, ml.FeatureNames(), meta.Columns)
}

func TestLoadPredictorArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	pipelinePath, catalogPath := mltest.WriteArtifacts(t, dir)

	_, err := ml.LoadPredictor(context.Background(), filepath.Join(dir, "missing.json"), catalogPath)
	assert.ErrorIs(t, err, ml.ErrArtifactLoad)

	_, err = ml.LoadPredictor(context.Background(), pipelinePath, filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, ml.ErrArtifactLoad)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"version":`), 0o600))
	_, err = ml.LoadPredictor(context.Background(), corrupt, catalogPath)
	assert.ErrorIs(t, err, ml.ErrArtifactLoad)
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "cause is kept in the chain")
}
