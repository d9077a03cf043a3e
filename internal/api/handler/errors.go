package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/jobdesk/internal/ai/llm"
	mw "github.com/kiranshivaraju/jobdesk/internal/api/middleware"
	"github.com/kiranshivaraju/jobdesk/internal/api/response"
	"github.com/kiranshivaraju/jobdesk/internal/intake"
	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// apiError is the code and status an error maps to at the HTTP edge.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps a service error to its API error. The message of a known
// error is safe to show; unknown errors get a generic message.
func classify(err error) apiError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apiError{http.StatusNotFound, "JOB_NOT_FOUND", "Job not found"}
	case errors.Is(err, store.ErrChecklistItemNotFound):
		return apiError{http.StatusNotFound, "CHECKLIST_ITEM_NOT_FOUND", "Checklist item not found"}
	case errors.Is(err, models.ErrInvalidStatus):
		return apiError{http.StatusBadRequest, "INVALID_STATUS", err.Error()}
	case errors.Is(err, intake.ErrInvalidEmail),
		errors.Is(err, intake.ErrInvalidDraft),
		errors.Is(err, response.ErrInvalidBody):
		return apiError{http.StatusBadRequest, "INVALID_REQUEST", err.Error()}
	case errors.Is(err, llm.ErrInferenceTimeout):
		return apiError{http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT", "AI provider did not answer in time"}
	case errors.Is(err, llm.ErrInvalidResponse):
		return apiError{http.StatusBadGateway, "AI_INVALID_RESPONSE", "AI provider returned an unusable response"}
	case errors.Is(err, llm.ErrProviderUnavailable), errors.Is(err, llm.ErrUnauthorized):
		return apiError{http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE", "AI provider is unavailable"}
	default:
		return apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	if e.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "code", e.Code, "error", err,
			"request_id", mw.GetRequestID(r.Context()))
	}
	response.Error(w, e.Status, e.Code, e.Message, nil)
}

func badRequest(w http.ResponseWriter, message string) {
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", message, nil)
}
