package models

import "time"

// DueSoonWindow is how far ahead of the generation day the weekly report looks.
const DueSoonWindow = 7 * 24 * time.Hour

// Report is a derived weekly summary of the job store. It is recomputed on
// demand and never persisted.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WindowEnd   time.Time     `json:"window_end"`
	Total       int           `json:"total"`
	ByStatus    []StatusGroup `json:"by_status"`
	DueSoon     []*Job        `json:"due_soon"`
	Overdue     []*Job        `json:"overdue"`
	Narrative   string        `json:"narrative,omitempty"`
	// NarrativeError explains a missing narrative when one was requested.
	NarrativeError string `json:"narrative_error,omitempty"`
}

// StatusGroup holds the jobs in one status.
type StatusGroup struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Jobs   []*Job `json:"jobs"`
}

// Group returns the group for s, or nil if the report has none.
func (r *Report) Group(s Status) *StatusGroup {
	for i := range r.ByStatus {
		if r.ByStatus[i].Status == s {
			return &r.ByStatus[i]
		}
	}
	return nil
}
