package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cropyield/ml"
	"cropyield/presentation"
)

const codeBadRequest = "BAD_REQUEST"

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type predictResponse struct {
	Yield   float64                `json:"yield"`
	Raw     float64                `json:"raw"`
	Tier    presentation.Tier      `json:"tier"`
	Message presentation.Bilingual `json:"message"`
}

func newPredictResponse(result ml.Result) predictResponse {
	tier := presentation.Classify(result.Yield)
	return predictResponse{
		Yield:   result.Yield,
		Raw:     result.Raw,
		Tier:    tier,
		Message: presentation.TierMessage(tier),
	}
}

// inputError is a request the server could not even turn into an ml.Request.
type inputError struct {
	Field   string
	Message string
}

func (e *inputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), errorBody(err))
}

// statusFor maps validation failures to 422 and malformed input to 400.
func statusFor(err error) int {
	switch ml.CodeOf(err) {
	case ml.CodeInvalidCategory, ml.CodeInvalidMagnitude:
		return http.StatusUnprocessableEntity
	}
	var inErr *inputError
	if errors.As(err, &inErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorBody(err error) errorResponse {
	var mlErr *ml.Error
	if errors.As(err, &mlErr) && mlErr.Code != ml.CodeArtifactLoad {
		return errorResponse{Error: string(mlErr.Code), Field: mlErr.Field, Message: mlErr.Message}
	}
	var inErr *inputError
	if errors.As(err, &inErr) {
		return errorResponse{Error: codeBadRequest, Field: inErr.Field, Message: inErr.Message}
	}
	return errorResponse{Error: "INTERNAL_ERROR", Message: "internal server error"}
}
