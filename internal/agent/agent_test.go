package agent

import (
	"context"
	"errors"
	"testing"

	"jobscout/internal/model"
	"jobscout/internal/scraper"
	"jobscout/internal/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScraper struct {
	name string
	jobs []model.Job
}

func (s stubScraper) Name() string { return s.name }

func (s stubScraper) Search(ctx context.Context, keywords, location string, opts scraper.Options) []model.Job {
	return s.jobs
}

type stubStore struct {
	saved     [][]model.Job
	histories []model.SearchHistory
	saveErr   error
	listed    []model.Job
}

func (s *stubStore) SaveJobs(ctx context.Context, jobs []model.Job) (storage.SaveResult, error) {
	if s.saveErr != nil {
		return storage.SaveResult{}, s.saveErr
	}
	s.saved = append(s.saved, jobs)
	return storage.SaveResult{Saved: len(jobs), NewJobs: jobs}, nil
}

func (s *stubStore) SaveSearchHistory(ctx context.Context, history *model.SearchHistory) error {
	s.histories = append(s.histories, *history)
	return nil
}

func (s *stubStore) ListJobs(ctx context.Context, query storage.JobQuery) ([]model.Job, error) {
	return s.listed, nil
}

type stubAnalyzer struct {
	calls int
}

func (s *stubAnalyzer) BatchAnalyze(ctx context.Context, jobs []model.Job, maxJobs int) []model.Job {
	s.calls++
	for i := range jobs {
		jobs[i].AISummary = "analyzed"
	}
	return jobs
}

func threeJobs(source string) []model.Job {
	return []model.Job{
		{ExternalID: source + "_1", Source: source},
		{ExternalID: source + "_2", Source: source},
		{ExternalID: source + "_3", Source: source},
	}
}

func TestExecuteSearchMergesAndPersists(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	an := &stubAnalyzer{}
	ag := New([]scraper.Scraper{
		stubScraper{name: "indeed", jobs: threeJobs("indeed")},
		stubScraper{name: "monster", jobs: []model.Job{}},
	}, nil, an, store, 0, zap.NewNop())

	result, err := ag.ExecuteSearch(context.Background(), SearchRequest{
		Keywords: "golang",
		Location: "Remote",
		Analyze:  true,
		SaveToDB: true,
	})
	require.NoError(t, err)

	require.Equal(t, 3, result.TotalJobs)
	require.Equal(t, 3, result.NewJobsSaved)
	require.Equal(t, map[string]int{"indeed": 3, "monster": 0}, result.PlatformBreakdown)
	require.Len(t, result.Jobs, 3)
	require.Equal(t, 1, an.calls)
	require.Equal(t, "analyzed", result.Jobs[0].AISummary)
	require.False(t, result.Timestamp.IsZero())

	// One history row per queried platform, raw pre-dedup counts.
	require.Len(t, store.histories, 2)
	counts := map[string]int{}
	for _, h := range store.histories {
		require.Equal(t, "golang", h.Keywords)
		require.Equal(t, "Remote", h.Location)
		counts[h.Source] = h.ResultsCount
	}
	require.Equal(t, map[string]int{"indeed": 3, "monster": 0}, counts)
}

func TestExecuteSearchSkipsDisabledPlatforms(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	ag := New([]scraper.Scraper{
		stubScraper{name: "indeed", jobs: threeJobs("indeed")},
		stubScraper{name: "monster", jobs: threeJobs("monster")},
	}, map[string]bool{"monster": false}, nil, store, 0, zap.NewNop())

	result, err := ag.ExecuteSearch(context.Background(), SearchRequest{Keywords: "golang", SaveToDB: true})
	require.NoError(t, err)

	require.Equal(t, 3, result.TotalJobs)
	require.NotContains(t, result.PlatformBreakdown, "monster")
	require.Len(t, store.histories, 1, "disabled platforms get no history row")
}

func TestExecuteSearchWithoutPersistence(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	ag := New([]scraper.Scraper{
		stubScraper{name: "indeed", jobs: threeJobs("indeed")},
	}, nil, nil, store, 0, zap.NewNop())

	result, err := ag.ExecuteSearch(context.Background(), SearchRequest{Keywords: "golang"})
	require.NoError(t, err)

	require.Equal(t, 3, result.TotalJobs)
	require.Zero(t, result.NewJobsSaved)
	require.Empty(t, store.saved)
	require.Empty(t, store.histories)
}

func TestExecuteSearchPropagatesStoreError(t *testing.T) {
	t.Parallel()

	store := &stubStore{saveErr: errors.New("disk full")}
	ag := New([]scraper.Scraper{
		stubScraper{name: "indeed", jobs: threeJobs("indeed")},
	}, nil, nil, store, 0, zap.NewNop())

	_, err := ag.ExecuteSearch(context.Background(), SearchRequest{Keywords: "golang", SaveToDB: true})
	require.ErrorContains(t, err, "disk full")
}

func TestGetJobs(t *testing.T) {
	t.Parallel()

	store := &stubStore{listed: threeJobs("indeed")}
	ag := New(nil, nil, nil, store, 0, zap.NewNop())

	jobs, err := ag.GetJobs(context.Background(), 10, "indeed", "")
	require.NoError(t, err)
	require.Len(t, jobs, 3)
}
