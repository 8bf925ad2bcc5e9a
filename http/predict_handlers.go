package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cropyield/ml"
	"cropyield/presentation"
)

const maxBodyBytes = 1 << 16

// predictInput is the wire form of a prediction request. Numeric fields are
// pointers so that a missing value is rejected instead of read as zero.
type predictInput struct {
	Crop           string   `json:"crop"`
	Season         string   `json:"season"`
	State          string   `json:"state"`
	Area           *float64 `json:"area"`
	Fertilizer     *float64 `json:"fertilizer"`
	Pesticide      *float64 `json:"pesticide"`
	AnnualRainfall *float64 `json:"annual_rainfall"`
	Production     *float64 `json:"production"`
}

func (in predictInput) request() (ml.Request, error) {
	numbers := []struct {
		name  string
		value *float64
	}{
		{ml.ColumnArea, in.Area},
		{ml.ColumnFertilizer, in.Fertilizer},
		{ml.ColumnPesticide, in.Pesticide},
		{ml.ColumnAnnualRainfall, in.AnnualRainfall},
		{ml.ColumnProduction, in.Production},
	}
	for _, n := range numbers {
		if n.value == nil {
			return ml.Request{}, &inputError{Field: n.name, Message: "is required"}
		}
	}
	return ml.Request{
		Crop:           in.Crop,
		Season:         in.Season,
		State:          in.State,
		Area:           *in.Area,
		Fertilizer:     *in.Fertilizer,
		Pesticide:      *in.Pesticide,
		AnnualRainfall: *in.AnnualRainfall,
		Production:     *in.Production,
	}, nil
}

func decodePredictInput(data []byte) (ml.Request, error) {
	var in predictInput
	if err := json.Unmarshal(data, &in); err != nil {
		return ml.Request{}, &inputError{Message: "invalid JSON: " + err.Error()}
	}
	return in.request()
}

func (h *Handlers) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, &inputError{Message: "request body too large or unreadable"})
		return
	}
	req, err := decodePredictInput(body)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.predict(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPredictResponse(result))
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r)
	h.render(w, http.StatusOK, data)
}

func (h *Handlers) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data := h.pageData(r)

	if err := r.ParseForm(); err != nil {
		data.Error = "could not read the submitted form"
		h.render(w, http.StatusBadRequest, data)
		return
	}
	data.Form = formValues(r)

	req, err := parseForm(data.Form)
	if err == nil {
		var result ml.Result
		result, err = h.predict(r.Context(), req)
		if err == nil {
			data.Result = presentation.NewResultView(presentation.Negotiate(r.Header.Get("Accept-Language")), result.Yield)
			h.render(w, http.StatusOK, data)
			return
		}
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.deps.Logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		data.Error = "internal server error"
	} else {
		data.Error = err.Error()
	}
	h.render(w, status, data)
}

func (h *Handlers) pageData(r *http.Request) presentation.PageData {
	tag := presentation.Negotiate(r.Header.Get("Accept-Language"))
	return presentation.NewPageData(tag, h.deps.Catalog.Crops(), h.deps.Catalog.Seasons(), h.deps.Catalog.States())
}

func (h *Handlers) render(w http.ResponseWriter, status int, data presentation.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.deps.Renderer.Render(w, data); err != nil {
		h.deps.Logger.Error("failed to render page", zap.Error(err))
	}
}

func formValues(r *http.Request) presentation.FormValues {
	return presentation.FormValues{
		Crop:       r.PostFormValue("crop"),
		Season:     r.PostFormValue("season"),
		State:      r.PostFormValue("state"),
		Area:       r.PostFormValue("area"),
		Fertilizer: r.PostFormValue("fertilizer"),
		Pesticide:  r.PostFormValue("pesticide"),
		Rainfall:   r.PostFormValue("annual_rainfall"),
		Production: r.PostFormValue("production"),
	}
}

func parseForm(form presentation.FormValues) (ml.Request, error) {
	req := ml.Request{Crop: form.Crop, Season: form.Season, State: form.State}
	numbers := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{ml.ColumnArea, form.Area, &req.Area},
		{ml.ColumnFertilizer, form.Fertilizer, &req.Fertilizer},
		{ml.ColumnPesticide, form.Pesticide, &req.Pesticide},
		{ml.ColumnAnnualRainfall, form.Rainfall, &req.AnnualRainfall},
		{ml.ColumnProduction, form.Production, &req.Production},
	}
	for _, n := range numbers {
		raw := strings.TrimSpace(n.raw)
		if raw == "" {
			return ml.Request{}, &inputError{Field: n.name, Message: "is required"}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
				// out-of-range input is a magnitude problem, let the predictor reject it
				*n.dst = v
				continue
			}
			return ml.Request{}, &inputError{Field: n.name, Message: "must be a number"}
		}
		*n.dst = v
	}
	return req, nil
}
