// Package report builds the weekly status report from the job store.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// Narrator writes a prose summary of a report.
type Narrator interface {
	NarrateReport(ctx context.Context, r *models.Report) (string, error)
}

type Generator struct {
	store    store.Store
	narrator Narrator
}

// NewGenerator returns a Generator. narrator may be nil, in which case
// narratives are never produced.
func NewGenerator(s store.Store, narrator Narrator) *Generator {
	return &Generator{store: s, narrator: narrator}
}

// Weekly groups every job by status and lists the jobs due within the next
// seven days (inclusive of today) and the open jobs already overdue.
func (g *Generator) Weekly(ctx context.Context, now time.Time) (*models.Report, error) {
	jobs, _, err := g.store.ListJobs(ctx, store.JobFilter{})
	if err != nil {
		return nil, fmt.Errorf("list jobs for report: %w", err)
	}

	today := models.Day(now)
	r := &models.Report{
		GeneratedAt: now.UTC(),
		WindowEnd:   today.Add(models.DueSoonWindow),
		Total:       len(jobs),
		ByStatus:    make([]models.StatusGroup, 0, len(models.Statuses)),
		DueSoon:     []*models.Job{},
		Overdue:     []*models.Job{},
	}
	for _, st := range models.Statuses {
		r.ByStatus = append(r.ByStatus, models.StatusGroup{Status: st, Label: st.Label(), Jobs: []*models.Job{}})
	}

	for _, j := range jobs {
		if grp := r.Group(j.Status); grp != nil {
			grp.Jobs = append(grp.Jobs, j)
			grp.Count++
		}
		if j.DueDate == nil {
			continue
		}
		due := models.Day(*j.DueDate)
		switch {
		case due.Before(today):
			if j.Status != models.StatusDone {
				r.Overdue = append(r.Overdue, j)
			}
		case !due.After(r.WindowEnd):
			r.DueSoon = append(r.DueSoon, j)
		}
	}

	// Jobs arrive in creation order; stable sorting keeps it among equal dates.
	byDue := func(list []*models.Job) {
		sort.SliceStable(list, func(a, b int) bool { return list[a].DueDate.Before(*list[b].DueDate) })
	}
	byDue(r.DueSoon)
	byDue(r.Overdue)
	return r, nil
}

// WeeklyWithNarrative is Weekly plus an AI-written summary. A failed
// narrative is recorded on the report rather than returned.
func (g *Generator) WeeklyWithNarrative(ctx context.Context, now time.Time) (*models.Report, error) {
	r, err := g.Weekly(ctx, now)
	if err != nil {
		return nil, err
	}
	if g.narrator == nil {
		r.NarrativeError = "no AI provider configured"
		return r, nil
	}

	text, err := g.narrator.NarrateReport(ctx, r)
	if err != nil {
		slog.WarnContext(ctx, "report narrative failed", "error", err)
		r.NarrativeError = err.Error()
		return r, nil
	}
	r.Narrative = text
	return r, nil
}
