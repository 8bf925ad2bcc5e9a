package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropyield/ml"
	"cropyield/ml/mltest"
)

type countingPredictor struct {
	calls int
	next  ml.YieldPredictor
}

func (c *countingPredictor) Predict(req ml.Request) (ml.Result, error) {
	c.calls++
	return c.next.Predict(req)
}

func TestCachedPredictorMemoizesSuccess(t *testing.T) {
	counter := &countingPredictor{next: mltest.NewPredictor(t)}
	cached, err := ml.NewCachedPredictor(counter, 8)
	require.NoError(t, err)

	first, err := cached.Predict(mltest.Request())
	require.NoError(t, err)

	padded := mltest.Request()
	padded.Crop = " Rice "
	second, err := cached.Predict(padded)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, 1, cached.(*ml.CachedPredictor).Len())
}

func TestCachedPredictorDoesNotCacheErrors(t *testing.T) {
	counter := &countingPredictor{next: mltest.NewPredictor(t)}
	cached, err := ml.NewCachedPredictor(counter, 8)
	require.NoError(t, err)

	bad := mltest.Request()
	bad.Area = -5
	for i := 0; i < 2; i++ {
		_, err := cached.Predict(bad)
		assert.ErrorIs(t, err, ml.ErrInvalidMagnitude)
	}
	assert.Equal(t, 2, counter.calls)
}

func TestCachedPredictorDisabled(t *testing.T) {
	predictor := mltest.NewPredictor(t)
	got, err := ml.NewCachedPredictor(predictor, 0)
	require.NoError(t, err)
	assert.Same(t, predictor, got)
}
