package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates (due dates).
const DateLayout = "2006-01-02"

// Job is a repair-service work item. Jobs are owned by the store; callers
// mutate them only through store update options.
type Job struct {
	ID          string          `db:"id"          json:"id"`
	Reference   string          `db:"reference"   json:"reference,omitempty"`
	Subject     string          `db:"subject"     json:"subject"`
	EmailBody   string          `db:"email_body"  json:"email_body,omitempty"`
	Description string          `db:"description" json:"description"`
	Customer    string          `db:"customer"    json:"customer"`
	Trades      []string        `db:"trades"      json:"trades"`
	Status      Status          `db:"status"      json:"status"`
	DueDate     *time.Time      `db:"due_date"    json:"due_date,omitempty"`
	Checklist   []ChecklistItem `json:"checklist"`
	CreatedAt   time.Time       `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"  json:"updated_at"`
}

// ChecklistItem is a single task on a job's checklist. It has no identity
// outside its parent job.
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// FormatJobID renders the n-th job identifier, e.g. 7 -> "J-007".
func FormatJobID(n uint64) string {
	return fmt.Sprintf("J-%03d", n)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Trades != nil {
		c.Trades = append([]string(nil), j.Trades...)
	}
	if j.Checklist != nil {
		c.Checklist = append([]ChecklistItem(nil), j.Checklist...)
	}
	if j.DueDate != nil {
		d := *j.DueDate
		c.DueDate = &d
	}
	return &c
}

// ChecklistProgress returns how many checklist items are done out of the total.
func (j *Job) ChecklistProgress() (done, total int) {
	for _, item := range j.Checklist {
		if item.Done {
			done++
		}
	}
	return done, len(j.Checklist)
}

// ChecklistFromTexts builds unticked checklist items from task strings.
func ChecklistFromTexts(texts []string) []ChecklistItem {
	items := make([]ChecklistItem, 0, len(texts))
	for _, t := range texts {
		items = append(items, ChecklistItem{Text: t})
	}
	return items
}
