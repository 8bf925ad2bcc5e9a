package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropyield/db"
	"cropyield/ml"
	"cropyield/ml/mltest"
	"cropyield/presentation"
)

type memoryHistory struct {
	mu        sync.Mutex
	records   []db.Record
	recordErr error
}

func (m *memoryHistory) Record(ctx context.Context, rec db.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) Recent(ctx context.Context, limit int) ([]db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Record{}
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memoryHistory) Summary(ctx context.Context) (db.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return db.Summary{Count: len(m.records)}, nil
}

func (m *memoryHistory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newTestHandler(t *testing.T, history History) http.Handler {
	t.Helper()
	predictor := mltest.NewPredictor(t)
	renderer, err := presentation.NewRenderer()
	require.NoError(t, err)

	handlers := NewHandlers(Dependencies{
		Predictor: predictor,
		Catalog:   predictor.Catalog(),
		Model:     predictor.Pipeline().Metadata(),
		History:   history,
		Renderer:  renderer,
	})
	return NewServer(DefaultServerConfig(), handlers, nopLogger()).Handler()
}

const referenceBody = `{"crop":"Rice","season":"Kharif","state":"Assam","area":100,"fertilizer":500,"pesticide":10,"annual_rainfall":1200,"production":300}`

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthHandler(t *testing.T) {
	rr := get(newTestHandler(t, nil), "/api/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestCatalogHandler(t *testing.T) {
	rr := get(newTestHandler(t, nil), "/api/catalog")
	require.Equal(t, http.StatusOK, rr.Code)

	var body catalogResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, mltest.Crops, body.Crops)
	assert.Equal(t, mltest.Seasons, body.Seasons)
	assert.Equal(t, mltest.States, body.States)
}

func TestModelHandler(t *testing.T) {
	rr := get(newTestHandler(t, nil), "/api/model")
	require.Equal(t, http.StatusOK, rr.Code)

	var meta ml.Metadata
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meta))
	assert.Equal(t, ml.FeatureNames(), meta.Columns)
	assert.Equal(t, ml.TargetLog, meta.TargetTransform)
	assert.Equal(t, ml.RegressorLinear, meta.Regressor)
	assert.Equal(t, 15, meta.EncodedWidth)
}

func TestAPIPredict(t *testing.T) {
	history := &memoryHistory{}
	rr := postJSON(newTestHandler(t, history), "/api/predict", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body predictResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	raw := mltest.ExpectedRaw(mltest.Request())
	assert.InDelta(t, raw, body.Raw, 1e-9)
	assert.InDelta(t, math.Exp(raw), body.Yield, 1e-9)
	assert.Equal(t, presentation.Classify(body.Yield), body.Tier)
	assert.Equal(t, presentation.TierMessage(body.Tier), body.Message)
	assert.Equal(t, 1, history.len())
}

func TestAPIPredictErrors(t *testing.T) {
	handler := newTestHandler(t, nil)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{
			name:   "unknown crop",
			body:   strings.Replace(referenceBody, `"Rice"`, `"Banana"`, 1),
			status: http.StatusUnprocessableEntity,
			code:   string(ml.CodeInvalidCategory),
			field:  ml.ColumnCrop,
		},
		{
			name:   "negative area",
			body:   strings.Replace(referenceBody, `"area":100`, `"area":-1`, 1),
			status: http.StatusUnprocessableEntity,
			code:   string(ml.CodeInvalidMagnitude),
			field:  ml.ColumnArea,
		},
		{
			name:   "missing production",
			body:   strings.Replace(referenceBody, `,"production":300`, ``, 1),
			status: http.StatusBadRequest,
			code:   codeBadRequest,
			field:  ml.ColumnProduction,
		},
		{
			name:   "malformed json",
			body:   `{"crop":`,
			status: http.StatusBadRequest,
			code:   codeBadRequest,
		},
		{
			name:   "wrong type",
			body:   strings.Replace(referenceBody, `"area":100`, `"area":"lots"`, 1),
			status: http.StatusBadRequest,
			code:   codeBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(handler, "/api/predict", tc.body)
			assert.Equal(t, tc.status, rr.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Error)
			assert.Equal(t, tc.field, body.Field)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestAPIPredictHistoryFailureDoesNotFailResponse(t *testing.T) {
	history := &memoryHistory{recordErr: errors.New("disk full")}
	rr := postJSON(newTestHandler(t, history), "/api/predict", referenceBody)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, history.len())
}

func TestIndexRendersCatalog(t *testing.T) {
	rr := get(newTestHandler(t, nil), "/")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, `<option value="Whole Year">Whole Year</option>`)
	assert.Contains(t, body, `<option value="Punjab">Punjab</option>`)
	assert.NotContains(t, body, "Jute")
	assert.NotContains(t, body, "Tons/Hectares</strong>")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	rr := get(newTestHandler(t, nil), "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func formBody(overrides map[string]string) string {
	values := url.Values{
		"crop":            {"Rice"},
		"season":          {"Kharif"},
		"state":           {"Assam"},
		"area":            {"100"},
		"fertilizer":      {"500"},
		"pesticide":       {"10"},
		"annual_rainfall": {"1200"},
		"production":      {"300"},
	}
	for k, v := range overrides {
		values.Set(k, v)
	}
	return values.Encode()
}

func postForm(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestFormPredict(t *testing.T) {
	history := &memoryHistory{}
	rr := postForm(newTestHandler(t, history), formBody(nil))
	require.Equal(t, http.StatusOK, rr.Code)

	yield := math.Exp(mltest.ExpectedRaw(mltest.Request()))
	body := rr.Body.String()
	assert.Contains(t, body, presentation.FormatYield(presentation.Negotiate(""), yield)+" Tons/Hectares")
	assert.Contains(t, body, `data-tier="`+string(presentation.Classify(yield))+`"`)
	assert.Contains(t, body, `<option value="Rice" selected>Rice</option>`)
	assert.Equal(t, 1, history.len())
}

func TestFormPredictErrors(t *testing.T) {
	handler := newTestHandler(t, nil)

	rr := postForm(handler, formBody(map[string]string{"crop": "Banana"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `role="alert">Crop: unknown value`)
	assert.Contains(t, rr.Body.String(), `value="300"`)

	rr = postForm(handler, formBody(map[string]string{"pesticide": "-5"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Pesticide: must not be negative")

	rr = postForm(handler, formBody(map[string]string{"area": "ten"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Area: must be a number")

	rr = postForm(handler, formBody(map[string]string{"production": ""}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Production: is required")

	rr = postForm(handler, formBody(map[string]string{"annual_rainfall": "1e400"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHistoryDisabled(t *testing.T) {
	handler := newTestHandler(t, nil)

	assert.Equal(t, http.StatusNotFound, get(handler, "/api/history").Code)
	assert.Equal(t, http.StatusNotFound, get(handler, "/api/history/summary").Code)
}

func TestHistoryEndpoints(t *testing.T) {
	history := &memoryHistory{}
	handler := newTestHandler(t, history)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, postJSON(handler, "/api/predict", referenceBody).Code)
	}

	rr := get(handler, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)
	var records []db.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	assert.Len(t, records, 2)
	assert.Equal(t, "Rice", records[0].Crop)

	rr = get(handler, "/api/history/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	var summary db.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Count)

	assert.Equal(t, http.StatusBadRequest, get(handler, "/api/history?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(handler, "/api/history?limit=abc").Code)
}
