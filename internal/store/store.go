package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

var (
	ErrNotFound              = errors.New("job not found")
	ErrChecklistItemNotFound = errors.New("checklist item not found")
)

// MaxPageLimit caps JobFilter.Limit when a limit is requested.
const MaxPageLimit = 100

// Store is the data access interface. All job persistence goes through here.
// Implementations hand out copies; mutating a returned job never changes
// stored state.
type Store interface {
	Ping(ctx context.Context) error

	// CreateJob assigns job.ID, timestamps and a default status, then
	// persists a copy. The caller's job is updated with the assigned values.
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)

	// UpdateJob applies opts atomically. On any error the stored job is left
	// unchanged.
	UpdateJob(ctx context.Context, id string, opts ...JobUpdateOption) (*models.Job, error)
}

// JobFilter selects jobs for ListJobs. Jobs are always returned in creation
// order. Limit 0 returns every matching job.
type JobFilter struct {
	Status models.Status
	Page   int
	Limit  int
}

// window returns the offset and limit to apply; limit -1 means unbounded.
func (f JobFilter) window() (offset, limit int) {
	if f.Limit <= 0 {
		return 0, -1
	}
	limit = f.Limit
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// paginate applies the filter window to an already filtered slice.
func (f JobFilter) paginate(jobs []*models.Job) []*models.Job {
	offset, limit := f.window()
	if offset >= len(jobs) {
		return []*models.Job{}
	}
	end := len(jobs)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return jobs[offset:end]
}

type checklistTick struct {
	index int
	done  bool
}

type jobUpdateParams struct {
	Status      *models.Status
	DueDate     *time.Time
	ClearDue    bool
	Customer    *string
	Description *string
	Reference   *string
	Trades      *[]string
	Checklist   *[]models.ChecklistItem
	Ticks       []checklistTick
}

type JobUpdateOption func(*jobUpdateParams)

func WithStatus(s models.Status) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Status = &s
	}
}

// WithDueDate sets the due date, normalized to its calendar day in UTC.
func WithDueDate(d time.Time) JobUpdateOption {
	return func(p *jobUpdateParams) {
		day := models.Day(d)
		p.DueDate = &day
		p.ClearDue = false
	}
}

func WithoutDueDate() JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.DueDate = nil
		p.ClearDue = true
	}
}

func WithCustomer(customer string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Customer = &customer
	}
}

func WithDescription(description string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Description = &description
	}
}

func WithReference(reference string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Reference = &reference
	}
}

func WithTrades(trades []string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		t := append([]string{}, trades...)
		p.Trades = &t
	}
}

// WithChecklist replaces the whole checklist.
func WithChecklist(items []models.ChecklistItem) JobUpdateOption {
	return func(p *jobUpdateParams) {
		c := append([]models.ChecklistItem{}, items...)
		p.Checklist = &c
	}
}

// WithChecklistItemDone ticks or unticks the item at index. An index outside
// the checklist fails the whole update with ErrChecklistItemNotFound.
func WithChecklistItemDone(index int, done bool) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Ticks = append(p.Ticks, checklistTick{index: index, done: done})
	}
}

func collectParams(opts []JobUpdateOption) *jobUpdateParams {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}
	return params
}

// checklistChanged reports whether applying the params rewrites checklist rows.
func (p *jobUpdateParams) checklistChanged() bool {
	return p.Checklist != nil || len(p.Ticks) > 0
}

// apply mutates job in place. Callers pass a copy so a failed apply leaves
// stored state untouched.
func (p *jobUpdateParams) apply(job *models.Job, now time.Time) error {
	if p.Status != nil {
		if !p.Status.Valid() {
			return fmt.Errorf("%w: %q", models.ErrInvalidStatus, *p.Status)
		}
		job.Status = *p.Status
	}
	switch {
	case p.ClearDue:
		job.DueDate = nil
	case p.DueDate != nil:
		d := *p.DueDate
		job.DueDate = &d
	}
	if p.Customer != nil {
		job.Customer = *p.Customer
	}
	if p.Description != nil {
		job.Description = *p.Description
	}
	if p.Reference != nil {
		job.Reference = *p.Reference
	}
	if p.Trades != nil {
		job.Trades = append([]string{}, (*p.Trades)...)
	}
	if p.Checklist != nil {
		job.Checklist = append([]models.ChecklistItem{}, (*p.Checklist)...)
	}
	for _, t := range p.Ticks {
		if t.index < 0 || t.index >= len(job.Checklist) {
			return fmt.Errorf("%w: job %s has no item %d", ErrChecklistItemNotFound, job.ID, t.index)
		}
		job.Checklist[t.index].Done = t.done
	}
	job.UpdatedAt = now
	return nil
}

// prepareNew fills the store-assigned fields of a job about to be inserted.
func prepareNew(job *models.Job, seq uint64, now time.Time) error {
	if job.Status == "" {
		job.Status = models.StatusNew
	}
	if !job.Status.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, job.Status)
	}
	job.ID = models.FormatJobID(seq)
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.DueDate != nil {
		d := models.Day(*job.DueDate)
		job.DueDate = &d
	}
	if job.Trades == nil {
		job.Trades = []string{}
	}
	if job.Checklist == nil {
		job.Checklist = []models.ChecklistItem{}
	}
	return nil
}
