package handler

import (
	"time"

	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

type checklistItemResponse struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Done  bool   `json:"done"`
}

type jobResponse struct {
	ID             string                  `json:"id"`
	Reference      string                  `json:"reference"`
	Subject        string                  `json:"subject"`
	EmailBody      string                  `json:"email_body,omitempty"`
	Description    string                  `json:"description"`
	Customer       string                  `json:"customer"`
	Trades         []string                `json:"trades"`
	Status         models.Status           `json:"status"`
	StatusLabel    string                  `json:"status_label"`
	DueDate        *string                 `json:"due_date"`
	Checklist      []checklistItemResponse `json:"checklist"`
	ChecklistDone  int                     `json:"checklist_done"`
	ChecklistTotal int                     `json:"checklist_total"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func toJobResponse(j *models.Job) jobResponse {
	done, total := j.ChecklistProgress()
	items := make([]checklistItemResponse, 0, len(j.Checklist))
	for i, item := range j.Checklist {
		items = append(items, checklistItemResponse{Index: i, Text: item.Text, Done: item.Done})
	}
	trades := j.Trades
	if trades == nil {
		trades = []string{}
	}
	return jobResponse{
		ID:             j.ID,
		Reference:      j.Reference,
		Subject:        j.Subject,
		EmailBody:      j.EmailBody,
		Description:    j.Description,
		Customer:       j.Customer,
		Trades:         trades,
		Status:         j.Status,
		StatusLabel:    j.Status.Label(),
		DueDate:        formatDate(j.DueDate),
		Checklist:      items,
		ChecklistDone:  done,
		ChecklistTotal: total,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

func toJobResponses(jobs []*models.Job) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}

type extractionResponse struct {
	Reference   string   `json:"reference"`
	Customer    string   `json:"customer"`
	Description string   `json:"description"`
	Trades      []string `json:"trades"`
	DueDate     *string  `json:"due_date"`
	Checklist   []string `json:"checklist"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
}

func toExtractionResponse(e models.Extraction) extractionResponse {
	trades, checklist := e.Trades, e.Checklist
	if trades == nil {
		trades = []string{}
	}
	if checklist == nil {
		checklist = []string{}
	}
	return extractionResponse{
		Reference:   e.Reference,
		Customer:    e.Customer,
		Description: e.Description,
		Trades:      trades,
		DueDate:     formatDate(e.DueDate),
		Checklist:   checklist,
		Provider:    e.Provider,
		Model:       e.Model,
	}
}

type statusGroupResponse struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int           `json:"count"`
	Jobs   []jobResponse `json:"jobs"`
}

type reportResponse struct {
	GeneratedAt    time.Time             `json:"generated_at"`
	WindowEnd      string                `json:"window_end"`
	Total          int                   `json:"total"`
	ByStatus       []statusGroupResponse `json:"by_status"`
	DueSoon        []jobResponse         `json:"due_soon"`
	Overdue        []jobResponse         `json:"overdue"`
	Narrative      string                `json:"narrative,omitempty"`
	NarrativeError string                `json:"narrative_error,omitempty"`
}

func toReportResponse(r *models.Report) reportResponse {
	groups := make([]statusGroupResponse, 0, len(r.ByStatus))
	for _, g := range r.ByStatus {
		groups = append(groups, statusGroupResponse{
			Status: g.Status,
			Label:  g.Label,
			Count:  g.Count,
			Jobs:   toJobResponses(g.Jobs),
		})
	}
	return reportResponse{
		GeneratedAt:    r.GeneratedAt,
		WindowEnd:      r.WindowEnd.Format(models.DateLayout),
		Total:          r.Total,
		ByStatus:       groups,
		DueSoon:        toJobResponses(r.DueSoon),
		Overdue:        toJobResponses(r.Overdue),
		Narrative:      r.Narrative,
		NarrativeError: r.NarrativeError,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}
