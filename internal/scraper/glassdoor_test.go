package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const glassdoorFixture = `{
	"jobs": [
		{
			"jobId": "gd7",
			"jobTitle": "Data Engineer",
			"employer": {"name": "Vandelay"},
			"location": {"name": "Seattle, WA", "isRemote": true},
			"description": "<p>Build <em>pipelines</em>.</p>",
			"jobUrl": "https://glassdoor.example/gd7",
			"employmentType": "fulltime",
			"salary": {"min": 130000, "max": 160000},
			"postedDate": "2024-06-01T12:00:00Z"
		},
		{
			"jobTitle": "No id, must be dropped"
		},
		{
			"jobId": 8855,
			"title": "Platform Engineer",
			"location": {"name": "Chicago, IL"}
		}
	]
}`

func newTestGlassdoor(t *testing.T, handler http.HandlerFunc) *Glassdoor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Glassdoor{
		apiKey:   "test-key",
		apiHost:  "glassdoor-job-search.p.rapidapi.com",
		endpoint: srv.URL,
		client:   srv.Client(),
		logger:   zap.NewNop(),
	}
}

func TestGlassdoorSearchNormalizes(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotQuery map[string]string
	g := newTestGlassdoor(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotQuery = map[string]string{
			"query":          r.URL.Query().Get("query"),
			"location":       r.URL.Query().Get("location"),
			"page":           r.URL.Query().Get("page"),
			"fromAge":        r.URL.Query().Get("fromAge"),
			"employmentType": r.URL.Query().Get("employmentType"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(glassdoorFixture))
	})

	jobs := g.Search(context.Background(), "data engineer", "", Options{
		DatePosted: "7",
		JobType:    "fulltime",
	})
	require.Len(t, jobs, 2, "record without native id must be dropped")

	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "data engineer", gotQuery["query"])
	require.Equal(t, "United States", gotQuery["location"], "empty location falls back to the default")
	require.Equal(t, "1", gotQuery["page"])
	require.Equal(t, "7", gotQuery["fromAge"])
	require.Equal(t, "fulltime", gotQuery["employmentType"])

	job := jobs[0]
	require.Equal(t, "glassdoor_gd7", job.ExternalID)
	require.Equal(t, "glassdoor", job.Source)
	require.Equal(t, "Data Engineer", job.Title)
	require.Equal(t, "Vandelay", job.Company)
	require.Equal(t, "Seattle, WA", job.Location)
	require.Equal(t, "Build pipelines.", job.Description)
	require.Equal(t, "https://glassdoor.example/gd7", job.URL)
	require.Equal(t, "fulltime", job.JobType)
	require.Equal(t, "remote", job.RemoteType)
	require.NotNil(t, job.SalaryMin)
	require.Equal(t, float64(130000), *job.SalaryMin)
	require.NotNil(t, job.PostedDate)

	// Numeric id, "title" fallback, and missing remote flag degrade gracefully.
	sparse := jobs[1]
	require.Equal(t, "glassdoor_8855", sparse.ExternalID)
	require.Equal(t, "Platform Engineer", sparse.Title)
	require.Equal(t, "onsite", sparse.RemoteType)
	require.Nil(t, sparse.SalaryMin)
	require.Nil(t, sparse.PostedDate)
}

func TestGlassdoorSearchHTTPErrorReturnsEmpty(t *testing.T) {
	t.Parallel()

	g := newTestGlassdoor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})

	jobs := g.Search(context.Background(), "data engineer", "", Options{})
	require.NotNil(t, jobs)
	require.Empty(t, jobs)
}

func TestGlassdoorNormalize(t *testing.T) {
	t.Parallel()

	g := &Glassdoor{logger: zap.NewNop()}

	job, err := g.normalize(map[string]any{
		"jobId":    "gd7",
		"jobTitle": "Data Engineer",
		"employer": map[string]any{"name": "Vandelay"},
		"location": map[string]any{"name": "Seattle, WA", "isRemote": true},
		"jobUrl":   "https://glassdoor.example/gd7",
	})
	require.NoError(t, err)
	require.Equal(t, "glassdoor_gd7", job.ExternalID)
	require.Equal(t, "Vandelay", job.Company)
	require.Equal(t, "Seattle, WA", job.Location)
	require.Equal(t, "remote", job.RemoteType)

	_, err = g.normalize(map[string]any{})
	require.Error(t, err)
}
