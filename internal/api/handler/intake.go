package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/jobdesk/internal/api/response"
	"github.com/kiranshivaraju/jobdesk/internal/intake"
)

// EmailProcessor is the New Job Entry side of the intake service.
type EmailProcessor interface {
	Process(ctx context.Context, email intake.Email) (*intake.Result, error)
	Extract(ctx context.Context, email intake.Email) (*intake.Outcome, error)
}

type emailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (e emailRequest) email() intake.Email {
	return intake.Email{Subject: e.Subject, Body: e.Body}
}

// NewIntakeHandler returns POST /api/v1/intake. The job is stored even when
// extraction fails; the failure is reported next to it.
func NewIntakeHandler(svc EmailProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := svc.Process(r.Context(), req.email())
		if err != nil {
			writeError(w, r, err)
			return
		}

		body := map[string]any{
			"job":    toJobResponse(res.Job),
			"cached": res.Cached,
		}
		if res.ExtractionError != nil {
			body["extraction_error"] = classify(res.ExtractionError)
		}
		response.Created(w, body)
	}
}

// NewPreviewHandler returns POST /api/v1/intake/preview, which shows what
// the model extracted without storing a job.
func NewPreviewHandler(svc EmailProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		out, err := svc.Extract(r.Context(), req.email())
		if err != nil {
			writeError(w, r, err)
			return
		}

		body := map[string]any{
			"extraction": toExtractionResponse(out.Extraction),
			"cached":     out.Cached,
		}
		if out.ChecklistError != nil {
			body["checklist_error"] = classify(out.ChecklistError)
		}
		response.JSON(w, body)
	}
}
