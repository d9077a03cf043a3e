// Package tracker applies user edits to stored jobs: status changes, due
// dates, checklist ticks and manual corrections.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/cache"
	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// Refresher is notified after every successful change.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Correction carries the fields a user fixed by hand. Nil fields are left
// as they are.
type Correction struct {
	Reference   *string
	Customer    *string
	Description *string
	Trades      []string
	// SetTrades distinguishes "clear the trades" from "leave them".
	SetTrades bool
	Checklist *[]models.ChecklistItem
}

func (c Correction) options() []store.JobUpdateOption {
	var opts []store.JobUpdateOption
	if c.Reference != nil {
		opts = append(opts, store.WithReference(strings.TrimSpace(*c.Reference)))
	}
	if c.Customer != nil {
		opts = append(opts, store.WithCustomer(strings.TrimSpace(*c.Customer)))
	}
	if c.Description != nil {
		opts = append(opts, store.WithDescription(strings.TrimSpace(*c.Description)))
	}
	if c.SetTrades {
		trades := make([]string, 0, len(c.Trades))
		for _, t := range c.Trades {
			if t = strings.TrimSpace(t); t != "" {
				trades = append(trades, t)
			}
		}
		opts = append(opts, store.WithTrades(trades))
	}
	if c.Checklist != nil {
		items := make([]models.ChecklistItem, 0, len(*c.Checklist))
		for _, item := range *c.Checklist {
			if item.Text = strings.TrimSpace(item.Text); item.Text != "" {
				items = append(items, item)
			}
		}
		opts = append(opts, store.WithChecklist(items))
	}
	return opts
}

type Tracker struct {
	store    store.Store
	mirror   Refresher
	cache    cache.Cache
	provider string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithExtractionCache makes Correct drop the cached extraction of the job's
// email, so a later preview of the same email asks the model again.
func WithExtractionCache(c cache.Cache, provider string) Option {
	return func(t *Tracker) {
		t.cache = c
		t.provider = provider
	}
}

// New returns a Tracker. mirror may be nil.
func New(s store.Store, mirror Refresher, opts ...Option) *Tracker {
	t := &Tracker{store: s, mirror: mirror, cache: cache.Nop{}}
	for _, opt := range opts {
		opt(t)
	}
	if t.cache == nil {
		t.cache = cache.Nop{}
	}
	return t
}

// SetStatus accepts a wire value or a display label.
func (t *Tracker) SetStatus(ctx context.Context, id, status string) (*models.Job, error) {
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return t.update(ctx, id, "status", store.WithStatus(st))
}

// SetDueDate sets the due date to the calendar day of due, or clears it
// when due is nil.
func (t *Tracker) SetDueDate(ctx context.Context, id string, due *time.Time) (*models.Job, error) {
	if due == nil {
		return t.update(ctx, id, "due_date", store.WithoutDueDate())
	}
	return t.update(ctx, id, "due_date", store.WithDueDate(*due))
}

func (t *Tracker) SetChecklistItem(ctx context.Context, id string, index int, done bool) (*models.Job, error) {
	return t.update(ctx, id, "checklist", store.WithChecklistItemDone(index, done))
}

// Correct applies a manual correction. An empty correction returns the job
// unchanged.
func (t *Tracker) Correct(ctx context.Context, id string, c Correction) (*models.Job, error) {
	opts := c.options()
	if len(opts) == 0 {
		return t.store.GetJob(ctx, id)
	}
	job, err := t.update(ctx, id, "correction", opts...)
	if err != nil {
		return nil, err
	}
	t.forgetExtraction(ctx, job)
	return job, nil
}

func (t *Tracker) forgetExtraction(ctx context.Context, job *models.Job) {
	if job.Subject == "" || job.EmailBody == "" {
		return
	}
	key := cache.ExtractionKey(t.provider, job.Subject, job.EmailBody)
	if err := t.cache.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "dropping cached extraction failed", "job_id", job.ID, "error", err)
	}
}

func (t *Tracker) update(ctx context.Context, id, field string, opts ...store.JobUpdateOption) (*models.Job, error) {
	job, err := t.store.UpdateJob(ctx, id, opts...)
	if err != nil {
		return nil, fmt.Errorf("update %s of job %s: %w", field, id, err)
	}
	slog.InfoContext(ctx, "job updated", "job_id", id, "field", field, "status", job.Status)

	if t.mirror != nil {
		t.mirror.Refresh(ctx)
	}
	return job, nil
}
