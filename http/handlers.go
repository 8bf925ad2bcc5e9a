package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"cropyield/db"
	"cropyield/ml"
	"cropyield/presentation"
)

// History is the audit trail the handlers write to. A nil History
// disables recording and the history endpoints.
type History interface {
	Record(ctx context.Context, rec db.Record) error
	Recent(ctx context.Context, limit int) ([]db.Record, error)
	Summary(ctx context.Context) (db.Summary, error)
}

// Dependencies are built once at startup and shared read-only by every request.
type Dependencies struct {
	Predictor    ml.YieldPredictor
	Catalog      *ml.Catalog
	Model        ml.Metadata
	History      History
	HistoryLimit int
	Renderer     *presentation.Renderer
	Logger       *zap.Logger
}

type Handlers struct {
	deps Dependencies
}

func NewHandlers(deps Dependencies) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 50
	}
	return &Handlers{deps: deps}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handleFormPredict)

	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/catalog", h.handleCatalog)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("POST /api/predict", h.handleAPIPredict)
	mux.HandleFunc("GET /api/history", h.handleHistory)
	mux.HandleFunc("GET /api/history/summary", h.handleHistorySummary)
	mux.HandleFunc("GET /api/ws/predict", h.handleWebSocket)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type catalogResponse struct {
	Crops   []string `json:"crops"`
	Seasons []string `json:"seasons"`
	States  []string `json:"states"`
}

func (h *Handlers) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalogResponse{
		Crops:   h.deps.Catalog.Crops(),
		Seasons: h.deps.Catalog.Seasons(),
		States:  h.deps.Catalog.States(),
	})
}

func (h *Handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.deps.Model)
}

// predict runs one prediction and records it. History failures are logged only.
func (h *Handlers) predict(ctx context.Context, req ml.Request) (ml.Result, error) {
	result, err := h.deps.Predictor.Predict(req)
	if err != nil {
		h.deps.Logger.Debug("prediction rejected",
			zap.String("request_id", GetRequestID(ctx)),
			zap.String("code", string(ml.CodeOf(err))),
			zap.Error(err),
		)
		return ml.Result{}, err
	}

	if h.deps.History != nil {
		rec := db.NewRecord(req, result, string(presentation.Classify(result.Yield)))
		if err := h.deps.History.Record(ctx, rec); err != nil {
			h.deps.Logger.Warn("failed to record prediction",
				zap.String("request_id", GetRequestID(ctx)),
				zap.Error(err),
			)
		}
	}
	return result, nil
}
