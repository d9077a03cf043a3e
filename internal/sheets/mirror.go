package sheets

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// Pusher receives the full job list.
type Pusher interface {
	Push(ctx context.Context, jobs []*models.Job) error
}

// Mirror keeps the sheet in step with the store. Failures only log; the
// store stays the source of truth.
type Mirror struct {
	store  store.Store
	pusher Pusher

	// mu serializes refreshes so each push is a complete, current snapshot.
	mu sync.Mutex
}

func NewMirror(s store.Store, p Pusher) *Mirror {
	return &Mirror{store: s, pusher: p}
}

// Refresh pushes every job. A nil Mirror is a no-op.
func (m *Mirror) Refresh(ctx context.Context) {
	if m == nil || m.pusher == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs, _, err := m.store.ListJobs(ctx, store.JobFilter{})
	if err != nil {
		slog.WarnContext(ctx, "sheets sync skipped: listing jobs failed", "error", err)
		return
	}
	if err := m.pusher.Push(ctx, jobs); err != nil {
		slog.WarnContext(ctx, "job updated locally but failed to sync to Google Sheets", "jobs", len(jobs), "error", err)
		return
	}
	slog.DebugContext(ctx, "sheets synced", "jobs", len(jobs))
}
