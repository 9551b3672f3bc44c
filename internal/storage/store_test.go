package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"jobscout/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "jobs.db")
	store, err := NewStore(dbPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.CreateTables())
	return store
}

func TestSaveJobsSkipsDuplicates(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	jobs := []model.Job{
		{ExternalID: "indeed_1", Source: "indeed", Title: "Backend Engineer"},
		{ExternalID: "adzuna_2", Source: "adzuna", Title: "Platform Engineer"},
	}

	res, err := store.SaveJobs(ctx, jobs)
	require.NoError(t, err)
	require.Equal(t, 2, res.Saved)
	require.Len(t, res.NewJobs, 2)

	// Same batch again plus one new record: existing rows stay untouched.
	jobs[0].Title = "Changed Title"
	jobs = append(jobs, model.Job{ExternalID: "monster_3", Source: "monster", Title: "SRE"})

	res, err = store.SaveJobs(ctx, jobs)
	require.NoError(t, err)
	require.Equal(t, 1, res.Saved)
	require.Len(t, res.NewJobs, 1)
	require.Equal(t, "monster_3", res.NewJobs[0].ExternalID)

	got, err := store.ListJobs(ctx, JobQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, job := range got {
		if job.ExternalID == "indeed_1" {
			require.Equal(t, "Backend Engineer", job.Title, "duplicates must not update existing rows")
		}
	}
}

func TestSaveJobsSkipsMissingExternalID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.SaveJobs(ctx, []model.Job{
		{Title: "No ID"},
		{ExternalID: "indeed_9", Source: "indeed", Title: "Valid"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Saved)
}

func TestSaveJobsEmptyBatch(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	res, err := store.SaveJobs(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, res.Saved)
}

func TestListJobsFilters(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveJobs(ctx, []model.Job{
		{ExternalID: "indeed_1", Source: "indeed", Title: "Go Developer", Description: "backend"},
		{ExternalID: "adzuna_2", Source: "adzuna", Title: "Java Developer", Description: "spring"},
		{ExternalID: "indeed_3", Source: "indeed", Title: "Designer", Description: "figma, golang adjacent team"},
	})
	require.NoError(t, err)

	bySource, err := store.ListJobs(ctx, JobQuery{Source: "indeed"})
	require.NoError(t, err)
	require.Len(t, bySource, 2)

	byKeyword, err := store.ListJobs(ctx, JobQuery{Keywords: "golang"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1, "keyword must match title or description")

	limited, err := store.ListJobs(ctx, JobQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetJob(ctx, 12345)
	require.ErrorIs(t, err, sql.ErrNoRows)

	res, err := store.SaveJobs(ctx, []model.Job{{ExternalID: "indeed_1", Source: "indeed", Title: "Go Developer"}})
	require.NoError(t, err)

	job, err := store.GetJob(ctx, res.NewJobs[0].ID)
	require.NoError(t, err)
	require.Equal(t, "indeed_1", job.ExternalID)
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveJobs(ctx, []model.Job{
		{ExternalID: "indeed_1", Source: "indeed"},
		{ExternalID: "indeed_2", Source: "indeed"},
		{ExternalID: "adzuna_1", Source: "adzuna"},
	})
	require.NoError(t, err)

	require.NoError(t, store.SaveSearchHistory(ctx, &model.SearchHistory{
		Keywords: "golang",
		Source:   "indeed",
	}))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalJobs)
	require.Equal(t, int64(2), stats.JobsBySource["indeed"])
	require.Equal(t, int64(1), stats.JobsBySource["adzuna"])
	require.Equal(t, int64(1), stats.RecentSearches)
}

func TestDropTables(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveJobs(ctx, []model.Job{{ExternalID: "indeed_1", Source: "indeed"}})
	require.NoError(t, err)

	require.NoError(t, store.DropTables())
	require.NoError(t, store.CreateTables())

	got, err := store.ListJobs(ctx, JobQuery{})
	require.NoError(t, err)
	require.Empty(t, got)
}
