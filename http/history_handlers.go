package http

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const maxHistoryLimit = 1000

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "history is disabled"})
		return
	}

	limit := h.deps.HistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			respondError(w, &inputError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	records, err := h.deps.History.Recent(r.Context(), limit)
	if err != nil {
		h.deps.Logger.Error("failed to read history", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handlers) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "history is disabled"})
		return
	}

	summary, err := h.deps.History.Summary(r.Context())
	if err != nil {
		h.deps.Logger.Error("failed to summarize history", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
