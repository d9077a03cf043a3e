package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/ai"
	"github.com/kiranshivaraju/jobdesk/internal/ai/llm"
	"github.com/kiranshivaraju/jobdesk/internal/ai/mock"
	"github.com/kiranshivaraju/jobdesk/internal/report"
	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := models.Day(now).AddDate(0, 0, offset)
	return &d
}

func seed(t *testing.T, jobs ...*models.Job) store.Store {
	t.Helper()
	s, err := store.NewMemoryStore()
	require.NoError(t, err)
	for _, j := range jobs {
		require.NoError(t, s.CreateJob(context.Background(), j))
	}
	return s
}

func ids(jobs []*models.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func TestWeekly_Empty(t *testing.T) {
	g := report.NewGenerator(seed(t), nil)

	r, err := g.Weekly(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Total)
	require.Len(t, r.ByStatus, len(models.Statuses))
	for i, grp := range r.ByStatus {
		assert.Equal(t, models.Statuses[i], grp.Status)
		assert.Equal(t, 0, grp.Count)
		assert.NotNil(t, grp.Jobs)
	}
	assert.Empty(t, r.DueSoon)
	assert.Empty(t, r.Overdue)
	assert.Equal(t, "2026-10-21", r.WindowEnd.Format(models.DateLayout))
}

func TestWeekly_NewJobDueInFiveDays(t *testing.T) {
	g := report.NewGenerator(seed(t, &models.Job{Subject: "Heater", DueDate: day(5)}), nil)

	r, err := g.Weekly(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Total)
	assert.Equal(t, 1, r.Group(models.StatusNew).Count)
	assert.Equal(t, []string{"J-001"}, ids(r.DueSoon))
	assert.Empty(t, r.Overdue)
}

func TestWeekly_GroupsAndWindow(t *testing.T) {
	s := seed(t,
		&models.Job{Subject: "a", Status: models.StatusNew, DueDate: day(7)},          // J-001 last day of window
		&models.Job{Subject: "b", Status: models.StatusInProgress, DueDate: day(0)},   // J-002 today
		&models.Job{Subject: "c", Status: models.StatusDone, DueDate: day(2)},         // J-003 done, still due soon
		&models.Job{Subject: "d", Status: models.StatusOnHold, DueDate: day(8)},       // J-004 outside window
		&models.Job{Subject: "e", Status: models.StatusNew},                           // J-005 no due date
		&models.Job{Subject: "f", Status: models.StatusAwaitingParts, DueDate: day(-3)}, // J-006 overdue
		&models.Job{Subject: "g", Status: models.StatusDone, DueDate: day(-1)},        // J-007 done, not overdue
		&models.Job{Subject: "h", Status: models.StatusNew, DueDate: day(2)},          // J-008 ties with J-003
	)
	g := report.NewGenerator(s, nil)

	r, err := g.Weekly(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 8, r.Total)
	assert.Equal(t, 3, r.Group(models.StatusNew).Count)
	assert.Equal(t, 1, r.Group(models.StatusInProgress).Count)
	assert.Equal(t, 1, r.Group(models.StatusAwaitingParts).Count)
	assert.Equal(t, 1, r.Group(models.StatusOnHold).Count)
	assert.Equal(t, 2, r.Group(models.StatusDone).Count)
	assert.Equal(t, []string{"J-001", "J-005", "J-008"}, ids(r.Group(models.StatusNew).Jobs))

	assert.Equal(t, []string{"J-002", "J-003", "J-008", "J-001"}, ids(r.DueSoon))
	assert.Equal(t, []string{"J-006"}, ids(r.Overdue))

	sum := 0
	for _, grp := range r.ByStatus {
		sum += grp.Count
	}
	assert.Equal(t, r.Total, sum)
}

func TestWeekly_ReadOnly(t *testing.T) {
	s := seed(t, &models.Job{Subject: "a", DueDate: day(1)})
	g := report.NewGenerator(s, nil)

	first, err := g.Weekly(context.Background(), now)
	require.NoError(t, err)
	first.DueSoon[0].Status = models.StatusDone

	got, err := s.GetJob(context.Background(), "J-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
}

func TestWeeklyWithNarrative(t *testing.T) {
	p := mock.NewMockProvider("Two jobs are open; one is due tomorrow.")
	s := seed(t, &models.Job{Subject: "a", Description: "Fix boiler", DueDate: day(1)})
	g := report.NewGenerator(s, ai.NewAdapter(p, time.Second, 0.7))

	r, err := g.WeeklyWithNarrative(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "Two jobs are open; one is due tomorrow.", r.Narrative)
	assert.Empty(t, r.NarrativeError)
	assert.Equal(t, 1, r.Total)
	require.Len(t, p.Calls(), 1)
	assert.Contains(t, p.Calls()[0].Prompt, "Fix boiler")
}

func TestWeeklyWithNarrative_FailureKeepsReport(t *testing.T) {
	p := mock.NewFailingProvider(llm.ErrProviderUnavailable)
	s := seed(t, &models.Job{Subject: "a", DueDate: day(1)})
	g := report.NewGenerator(s, ai.NewAdapter(p, time.Second, 0.7))

	r, err := g.WeeklyWithNarrative(context.Background(), now)
	require.NoError(t, err)

	assert.Empty(t, r.Narrative)
	assert.Contains(t, r.NarrativeError, "provider unavailable")
	assert.Equal(t, []string{"J-001"}, ids(r.DueSoon))
}

func TestWeeklyWithNarrative_NoNarrator(t *testing.T) {
	g := report.NewGenerator(seed(t), nil)

	r, err := g.WeeklyWithNarrative(context.Background(), now)
	require.NoError(t, err)
	assert.NotEmpty(t, r.NarrativeError)
}
