package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const serpapiFixture = `{
	"jobs_results": [
		{
			"job_id": "eyJqb2I",
			"title": "Platform Engineer",
			"company_name": "Initech",
			"location": "Denver, CO",
			"description": "Run the platform.",
			"job_highlights": [
				{"title": "Qualifications", "items": ["Go", "Kubernetes"]},
				{"title": "Benefits", "items": []}
			],
			"apply_options": [{"title": "Apply", "link": "https://jobs.example/apply/1"}],
			"detected_extensions": {
				"schedule_type": "Full-time",
				"work_from_home": true,
				"posted_at": "2024-06-01"
			}
		}
	]
}`

func TestSerpAPISearchNormalizes(t *testing.T) {
	t.Parallel()

	var gotEngine, gotChips string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEngine = r.URL.Query().Get("engine")
		gotChips = r.URL.Query().Get("chips")
		_, _ = w.Write([]byte(serpapiFixture))
	}))
	t.Cleanup(srv.Close)

	s := &SerpAPI{apiKey: "key", endpoint: srv.URL, client: srv.Client(), logger: zap.NewNop()}

	jobs := s.Search(context.Background(), "golang", "Denver", Options{DatePosted: "week"})
	require.Len(t, jobs, 1)

	require.Equal(t, "google_jobs", gotEngine)
	require.Equal(t, "date_posted:week", gotChips)

	job := jobs[0]
	require.Equal(t, "serpapi_eyJqb2I", job.ExternalID)
	require.Equal(t, "Initech", job.Company)
	require.Equal(t, "Full-time", job.JobType)
	require.Equal(t, "remote", job.RemoteType)
	require.Equal(t, "https://jobs.example/apply/1", job.URL)
	require.Contains(t, job.Description, "Run the platform.")
	require.Contains(t, job.Description, "Qualifications:")
	require.Contains(t, job.Description, "- Kubernetes")
	require.NotContains(t, job.Description, "Benefits:", "empty highlight sections are skipped")
	require.NotNil(t, job.PostedDate)
}

func TestSerpAPIPickURLFallsBack(t *testing.T) {
	t.Parallel()

	s := &SerpAPI{logger: zap.NewNop()}

	require.Equal(t, "https://share.example", s.pickURL(map[string]any{"share_url": "https://share.example"}))
	require.Equal(t, "https://related.example", s.pickURL(map[string]any{
		"related_links": []any{map[string]any{"link": "https://related.example"}},
	}))
	require.Equal(t, "", s.pickURL(map[string]any{}))
}
