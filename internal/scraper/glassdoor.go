package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"jobscout/internal/model"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Glassdoor 通过 RapidAPI 的 glassdoor-job-search 服务抓取 Glassdoor 职位。
type Glassdoor struct {
	apiKey   string
	apiHost  string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewGlassdoor 创建抓取器，凭证取自 RAPIDAPI_KEY。
func NewGlassdoor(logger *zap.Logger, client *http.Client) *Glassdoor {
	return &Glassdoor{
		apiKey:   os.Getenv("RAPIDAPI_KEY"),
		apiHost:  "glassdoor-job-search.p.rapidapi.com",
		endpoint: "https://glassdoor-job-search.p.rapidapi.com/search",
		client:   defaultHTTPClient(client),
		logger:   logger,
	}
}

func (g *Glassdoor) Name() string { return "glassdoor" }

// Search 执行检索，任何失败降级为空结果。
func (g *Glassdoor) Search(ctx context.Context, keywords, location string, opts Options) []model.Job {
	jobs, err := g.search(ctx, keywords, location, opts)
	if err != nil {
		g.logger.Warn("search failed", zap.String("source", g.Name()), zap.Error(err))
		return []model.Job{}
	}
	return jobs
}

func (g *Glassdoor) search(ctx context.Context, keywords, location string, opts Options) ([]model.Job, error) {
	if location == "" {
		location = "United States"
	}
	page := opts.Page
	if page == "" {
		page = "1"
	}

	query := url.Values{}
	query.Set("query", keywords)
	query.Set("location", location)
	query.Set("page", page)
	if opts.DatePosted != "" {
		query.Set("fromAge", opts.DatePosted)
	}
	if opts.JobType != "" {
		query.Set("employmentType", opts.JobType)
	}

	data, err := getJSON(ctx, g.client, g.endpoint, rapidAPIHeaders(g.apiKey, g.apiHost), query)
	if err != nil {
		return nil, err
	}

	rows := listField(data, "jobs")
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			dropRecord(g.logger, g.Name(), fmt.Errorf("record is not an object"))
			continue
		}
		job, err := g.normalize(raw)
		if err != nil {
			dropRecord(g.logger, g.Name(), err)
			continue
		}
		jobs = append(jobs, job)
	}

	g.logger.Info("search done", zap.String("source", g.Name()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (g *Glassdoor) normalize(raw map[string]any) (model.Job, error) {
	nativeID := idField(raw, "jobId")
	if nativeID == "" {
		return model.Job{}, fmt.Errorf("missing native id")
	}

	job := model.Job{
		ExternalID:  externalID(g.Name(), nativeID),
		Source:      g.Name(),
		Title:       stringField(raw, "jobTitle", "title"),
		Company:     nestedString(raw, "employer", "name"),
		Location:    nestedString(raw, "location", "name"),
		Description: htmlToText(stringField(raw, "description", "jobDescription")),
		URL:         stringField(raw, "jobUrl", "url"),
		JobType:     stringField(raw, "employmentType"),
		RemoteType:  "onsite",
		SalaryMin:   nestedFloat(raw, "salary", "min"),
		SalaryMax:   nestedFloat(raw, "salary", "max"),
		RawData:     datatypes.JSONMap(raw),
	}
	if nestedBool(raw, "location", "isRemote") {
		job.RemoteType = "remote"
	}
	if d := parseDate(raw["postedDate"]); d != nil {
		job.PostedDate = d
	} else {
		job.PostedDate = parseDate(raw["listingDate"])
	}
	return job, nil
}
