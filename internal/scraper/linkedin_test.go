package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const linkedinFixture = `{
	"data": [
		{
			"id": 99887766,
			"title": "Site Reliability Engineer",
			"company": {"name": "Globex"},
			"location": "New York, NY",
			"workplaceType": "Hybrid work",
			"postedAt": "2024-06-01 09:30:00"
		}
	]
}`

func TestLinkedInSearchNormalizes(t *testing.T) {
	t.Parallel()

	var gotLocationID, gotDatePosted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocationID = r.URL.Query().Get("locationId")
		gotDatePosted = r.URL.Query().Get("datePosted")
		_, _ = w.Write([]byte(linkedinFixture))
	}))
	t.Cleanup(srv.Close)

	l := &LinkedIn{
		apiKey:   "rapid-key",
		apiHost:  "linkedin-data-api.p.rapidapi.com",
		endpoint: srv.URL,
		client:   srv.Client(),
		logger:   zap.NewNop(),
	}

	jobs := l.Search(context.Background(), "sre", "New York", Options{})
	require.Len(t, jobs, 1)

	require.Equal(t, "102571732", gotLocationID)
	require.Equal(t, "anyTime", gotDatePosted)

	job := jobs[0]
	require.Equal(t, "linkedin_99887766", job.ExternalID, "numeric ids are stringified")
	require.Equal(t, "Globex", job.Company)
	require.Equal(t, "hybrid", job.RemoteType)
	require.Equal(t, "https://www.linkedin.com/jobs/view/99887766", job.URL)
	require.NotNil(t, job.PostedDate)
}

func TestLocationID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "103644278", locationID(""))
	require.Equal(t, "103644278", locationID("Boise, ID"))
	require.Equal(t, "103644278", locationID("Remote"))
	require.Equal(t, "102299470", locationID("  London  "))
}

func TestWorkplaceType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "remote", workplaceType("Remote"))
	require.Equal(t, "hybrid", workplaceType("Hybrid work"))
	require.Equal(t, "onsite", workplaceType("On-site"))
	require.Equal(t, "onsite", workplaceType(""))
}
