package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/jobdesk/internal/api/response"
	"github.com/kiranshivaraju/jobdesk/internal/intake"
	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/internal/tracker"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = store.MaxPageLimit
)

// ManualCreator stores a job typed in by hand.
type ManualCreator interface {
	CreateManual(ctx context.Context, d intake.Draft) (*models.Job, error)
}

// JobReader is the read side of the job store.
type JobReader interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
}

// JobEditor applies Job Tracker edits.
type JobEditor interface {
	SetStatus(ctx context.Context, id, status string) (*models.Job, error)
	SetDueDate(ctx context.Context, id string, due *time.Time) (*models.Job, error)
	SetChecklistItem(ctx context.Context, id string, index int, done bool) (*models.Job, error)
	Correct(ctx context.Context, id string, c tracker.Correction) (*models.Job, error)
}

type createJobRequest struct {
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Reference   string   `json:"reference"`
	Customer    string   `json:"customer"`
	Description string   `json:"description"`
	Trades      []string `json:"trades"`
	Status      string   `json:"status"`
	DueDate     string   `json:"due_date"`
	Checklist   []string `json:"checklist"`
}

// NewCreateJobHandler returns POST /api/v1/jobs.
func NewCreateJobHandler(svc ManualCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		draft := intake.Draft{
			Subject:     req.Subject,
			Body:        req.Body,
			Reference:   req.Reference,
			Customer:    req.Customer,
			Description: req.Description,
			Trades:      req.Trades,
			Status:      req.Status,
			Checklist:   req.Checklist,
		}
		if req.DueDate != "" {
			due, err := models.ParseDate(req.DueDate)
			if err != nil {
				badRequest(w, "due_date must be YYYY-MM-DD")
				return
			}
			draft.DueDate = &due
		}

		job, err := svc.CreateManual(r.Context(), draft)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, toJobResponse(job))
	}
}

// NewListJobsHandler returns GET /api/v1/jobs?status=&page=&limit=.
func NewListJobsHandler(jobs JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, ok := positiveParam(q.Get("page"), 1)
		if !ok {
			badRequest(w, "page must be a positive integer")
			return
		}
		limit, ok := positiveParam(q.Get("limit"), defaultPageLimit)
		if !ok {
			badRequest(w, "limit must be a positive integer")
			return
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}

		filter := store.JobFilter{Page: page, Limit: limit}
		if v := q.Get("status"); v != "" {
			st, err := models.ParseStatus(v)
			if err != nil {
				writeError(w, r, err)
				return
			}
			filter.Status = st
		}

		list, total, err := jobs.ListJobs(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Collection(w, toJobResponses(list), response.NewPaginationMeta(page, limit, total))
	}
}

// NewGetJobHandler returns GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(jobs JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := jobs.GetJob(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

type correctJobRequest struct {
	Reference   *string              `json:"reference"`
	Customer    *string              `json:"customer"`
	Description *string              `json:"description"`
	Trades      *[]string            `json:"trades"`
	Checklist   *[]checklistItemEdit `json:"checklist"`
}

type checklistItemEdit struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// NewCorrectJobHandler returns PATCH /api/v1/jobs/{jobID}. Omitted fields
// are left unchanged; a checklist in the body replaces the whole list.
func NewCorrectJobHandler(ed JobEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req correctJobRequest
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		c := tracker.Correction{
			Reference:   req.Reference,
			Customer:    req.Customer,
			Description: req.Description,
		}
		if req.Trades != nil {
			c.Trades = *req.Trades
			c.SetTrades = true
		}
		if req.Checklist != nil {
			items := make([]models.ChecklistItem, 0, len(*req.Checklist))
			for _, e := range *req.Checklist {
				items = append(items, models.ChecklistItem{Text: e.Text, Done: e.Done})
			}
			c.Checklist = &items
		}

		job, err := ed.Correct(r.Context(), chi.URLParam(r, "jobID"), c)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// NewSetStatusHandler returns PUT /api/v1/jobs/{jobID}/status.
func NewSetStatusHandler(ed JobEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Status == "" {
			badRequest(w, "status is required")
			return
		}

		job, err := ed.SetStatus(r.Context(), chi.URLParam(r, "jobID"), req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// NewSetDueDateHandler returns PUT /api/v1/jobs/{jobID}/due-date. The body
// must name due_date; null clears it.
func NewSetDueDateHandler(ed JobEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DueDate json.RawMessage `json:"due_date"`
		}
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if len(req.DueDate) == 0 {
			badRequest(w, "due_date is required")
			return
		}

		var due *time.Time
		if !bytes.Equal(req.DueDate, []byte("null")) {
			var s string
			if err := json.Unmarshal(req.DueDate, &s); err != nil {
				badRequest(w, "due_date must be a YYYY-MM-DD string or null")
				return
			}
			d, err := models.ParseDate(s)
			if err != nil {
				badRequest(w, "due_date must be YYYY-MM-DD")
				return
			}
			due = &d
		}

		job, err := ed.SetDueDate(r.Context(), chi.URLParam(r, "jobID"), due)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// NewSetChecklistItemHandler returns PUT /api/v1/jobs/{jobID}/checklist/{index}.
func NewSetChecklistItemHandler(ed JobEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			badRequest(w, "index must be a non-negative integer")
			return
		}

		var req struct {
			Done *bool `json:"done"`
		}
		if err := response.Decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Done == nil {
			badRequest(w, "done is required")
			return
		}

		job, err := ed.SetChecklistItem(r.Context(), chi.URLParam(r, "jobID"), index, *req.Done)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, toJobResponse(job))
	}
}

// positiveParam parses an optional positive integer query value.
func positiveParam(v string, def int) (int, bool) {
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
