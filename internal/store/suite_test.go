package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the Store contract against one backend. newStore
// must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("CreateAssignsSequentialIDs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var ids []string
		for i := 0; i < 3; i++ {
			j := &models.Job{Subject: fmt.Sprintf("job %d", i)}
			require.NoError(t, s.CreateJob(ctx, j))
			ids = append(ids, j.ID)

			assert.Equal(t, models.StatusNew, j.Status)
			assert.False(t, j.CreatedAt.IsZero())
			assert.True(t, j.CreatedAt.Equal(j.UpdatedAt))
		}
		assert.Equal(t, []string{"J-001", "J-002", "J-003"}, ids)
	})

	t.Run("CreateKeepsFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		due := time.Date(2026, 10, 20, 15, 45, 0, 0, time.UTC)

		j := &models.Job{
			Reference:   "WO-12",
			Subject:     "Boiler service",
			EmailBody:   "Annual boiler service please",
			Description: "Service boiler",
			Customer:    "Acme Ltd",
			Trades:      []string{"plumbing", "gas"},
			Status:      models.StatusOnHold,
			DueDate:     &due,
			Checklist:   models.ChecklistFromTexts([]string{"Inspect", "Service", "Report"}),
		}
		require.NoError(t, s.CreateJob(ctx, j))

		got, err := s.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, "WO-12", got.Reference)
		assert.Equal(t, "Boiler service", got.Subject)
		assert.Equal(t, "Annual boiler service please", got.EmailBody)
		assert.Equal(t, "Service boiler", got.Description)
		assert.Equal(t, "Acme Ltd", got.Customer)
		assert.Equal(t, []string{"plumbing", "gas"}, got.Trades)
		assert.Equal(t, models.StatusOnHold, got.Status)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, "2026-10-20", got.DueDate.Format(models.DateLayout))
		assert.True(t, got.DueDate.Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, []models.ChecklistItem{{Text: "Inspect"}, {Text: "Service"}, {Text: "Report"}}, got.Checklist)
		assert.True(t, got.CreatedAt.Equal(j.CreatedAt))
	})

	t.Run("CreateRejectsInvalidStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.CreateJob(ctx, &models.Job{Subject: "x", Status: "archived"})
		assert.ErrorIs(t, err, models.ErrInvalidStatus)

		_, total, err := s.ListJobs(ctx, store.JobFilter{})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("ReturnedJobsAreCopies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		j := &models.Job{Subject: "Gate", Checklist: models.ChecklistFromTexts([]string{"Fix latch"})}
		require.NoError(t, s.CreateJob(ctx, j))
		j.Checklist[0].Done = true
		j.Customer = "changed"

		got, err := s.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.False(t, got.Checklist[0].Done)
		assert.Empty(t, got.Customer)

		got.Checklist[0].Text = "mutated"
		again, err := s.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, "Fix latch", again.Checklist[0].Text)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetJob(context.Background(), "J-999")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ListOrderFilterAndPaging", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		statuses := []models.Status{
			models.StatusNew, models.StatusDone, models.StatusNew,
			models.StatusInProgress, models.StatusNew,
		}
		for i, st := range statuses {
			require.NoError(t, s.CreateJob(ctx, &models.Job{Subject: fmt.Sprintf("job %d", i), Status: st}))
		}

		all, total, err := s.ListJobs(ctx, store.JobFilter{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, all, 5)
		for i, j := range all {
			assert.Equal(t, models.FormatJobID(uint64(i+1)), j.ID)
		}

		open, total, err := s.ListJobs(ctx, store.JobFilter{Status: models.StatusNew})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"J-001", "J-003", "J-005"}, jobIDs(open))

		page, total, err := s.ListJobs(ctx, store.JobFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"J-003", "J-004"}, jobIDs(page))

		past, total, err := s.ListJobs(ctx, store.JobFilter{Page: 9, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, past)
	})

	t.Run("UpdateFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		j := &models.Job{Subject: "Roof leak"}
		require.NoError(t, s.CreateJob(ctx, j))

		due := time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC)
		updated, err := s.UpdateJob(ctx, j.ID,
			store.WithStatus(models.StatusInProgress),
			store.WithDueDate(due),
			store.WithCustomer("Harbor View"),
			store.WithDescription("Patch roof above unit 9"),
			store.WithReference("HV-88"),
			store.WithTrades([]string{"roofing"}),
			store.WithChecklist(models.ChecklistFromTexts([]string{"Inspect roof", "Patch"})),
		)
		require.NoError(t, err)

		assert.Equal(t, models.StatusInProgress, updated.Status)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, "2026-11-02", updated.DueDate.Format(models.DateLayout))
		assert.Equal(t, "Harbor View", updated.Customer)
		assert.Equal(t, "Patch roof above unit 9", updated.Description)
		assert.Equal(t, "HV-88", updated.Reference)
		assert.Equal(t, []string{"roofing"}, updated.Trades)
		assert.Len(t, updated.Checklist, 2)
		assert.False(t, updated.UpdatedAt.Before(j.UpdatedAt))

		got, err := s.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Status, got.Status)
		assert.Equal(t, updated.Checklist, got.Checklist)
		assert.Equal(t, "Roof leak", got.Subject)

		cleared, err := s.UpdateJob(ctx, j.ID, store.WithoutDueDate())
		require.NoError(t, err)
		assert.Nil(t, cleared.DueDate)
	})

	t.Run("UpdateNotFoundLeavesStoreUnchanged", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateJob(ctx, &models.Job{Subject: "only"}))

		_, err := s.UpdateJob(ctx, "J-999", store.WithStatus(models.StatusDone))
		assert.ErrorIs(t, err, store.ErrNotFound)

		jobs, total, err := s.ListJobs(ctx, store.JobFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, models.StatusNew, jobs[0].Status)
	})

	t.Run("UpdateInvalidStatusLeavesJobUnchanged", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		j := &models.Job{Subject: "x"}
		require.NoError(t, s.CreateJob(ctx, j))

		_, err := s.UpdateJob(ctx, j.ID, store.WithCustomer("new"), store.WithStatus("archived"))
		assert.ErrorIs(t, err, models.ErrInvalidStatus)

		got, err := s.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Customer)
		assert.Equal(t, models.StatusNew, got.Status)
	})

	t.Run("ChecklistTick", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		j := &models.Job{Subject: "x", Checklist: models.ChecklistFromTexts([]string{"a", "b", "c"})}
		require.NoError(t, s.CreateJob(ctx, j))

		updated, err := s.UpdateJob(ctx, j.ID, store.WithChecklistItemDone(1, true))
		require.NoError(t, err)
		assert.Equal(t, []bool{false, true, false}, doneFlags(updated))

		updated, err = s.UpdateJob(ctx, j.ID, store.WithChecklistItemDone(1, false), store.WithChecklistItemDone(2, true))
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, true}, doneFlags(updated))
	})

	t.Run("ChecklistTickOutOfRange", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		j := &models.Job{Subject: "x", Checklist: models.ChecklistFromTexts([]string{"a", "b"})}
		require.NoError(t, s.CreateJob(ctx, j))

		for _, idx := range []int{-1, 2, 50} {
			_, err := s.UpdateJob(ctx, j.ID, store.WithChecklistItemDone(0, true), store.WithChecklistItemDone(idx, true))
			assert.ErrorIs(t, err, store.ErrChecklistItemNotFound, "index %d", idx)
		}

		got, err := s.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false}, doneFlags(got))
	})

	t.Run("ChecklistsAreIsolatedPerJob", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := &models.Job{Subject: "a", Checklist: models.ChecklistFromTexts([]string{"same task"})}
		b := &models.Job{Subject: "b", Checklist: models.ChecklistFromTexts([]string{"same task"})}
		require.NoError(t, s.CreateJob(ctx, a))
		require.NoError(t, s.CreateJob(ctx, b))

		_, err := s.UpdateJob(ctx, a.ID, store.WithChecklistItemDone(0, true))
		require.NoError(t, err)

		gotB, err := s.GetJob(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, gotB.Checklist[0].Done)

		_, err = s.UpdateJob(ctx, b.ID, store.WithChecklist(nil))
		require.NoError(t, err)
		gotA, err := s.GetJob(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, gotA.Checklist, 1)
		assert.True(t, gotA.Checklist[0].Done)
	})

	t.Run("ConcurrentCreatesGetUniqueIDs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const n = 40

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[string]bool{}
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				j := &models.Job{Subject: fmt.Sprintf("concurrent %d", i)}
				if err := s.CreateJob(ctx, j); err != nil {
					t.Errorf("create job: %v", err)
					return
				}
				mu.Lock()
				ids[j.ID] = true
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		assert.Len(t, ids, n)
		_, total, err := s.ListJobs(ctx, store.JobFilter{})
		require.NoError(t, err)
		assert.Equal(t, n, total)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}

func jobIDs(jobs []*models.Job) []string {
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	return ids
}

func doneFlags(j *models.Job) []bool {
	flags := make([]bool, 0, len(j.Checklist))
	for _, item := range j.Checklist {
		flags = append(flags, item.Done)
	}
	return flags
}
