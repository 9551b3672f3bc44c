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

// Monster 通过 RapidAPI 的 monster-job-search 服务抓取 Monster 职位。
type Monster struct {
	apiKey   string
	apiHost  string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewMonster 创建抓取器，凭证取自 RAPIDAPI_KEY。
func NewMonster(logger *zap.Logger, client *http.Client) *Monster {
	return &Monster{
		apiKey:   os.Getenv("RAPIDAPI_KEY"),
		apiHost:  "monster-job-search.p.rapidapi.com",
		endpoint: "https://monster-job-search.p.rapidapi.com/search",
		client:   defaultHTTPClient(client),
		logger:   logger,
	}
}

func (m *Monster) Name() string { return "monster" }

// Search 执行检索，任何失败降级为空结果。
func (m *Monster) Search(ctx context.Context, keywords, location string, opts Options) []model.Job {
	jobs, err := m.search(ctx, keywords, location, opts)
	if err != nil {
		m.logger.Warn("search failed", zap.String("source", m.Name()), zap.Error(err))
		return []model.Job{}
	}
	return jobs
}

func (m *Monster) search(ctx context.Context, keywords, location string, opts Options) ([]model.Job, error) {
	if location == "" {
		location = "United States"
	}
	page := opts.Page
	if page == "" {
		page = "1"
	}

	query := url.Values{}
	query.Set("q", keywords)
	query.Set("where", location)
	query.Set("page", page)
	if opts.DatePosted != "" {
		query.Set("tm", opts.DatePosted)
	}

	data, err := getJSON(ctx, m.client, m.endpoint, rapidAPIHeaders(m.apiKey, m.apiHost), query)
	if err != nil {
		return nil, err
	}

	rows := listField(data, "results")
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			dropRecord(m.logger, m.Name(), fmt.Errorf("record is not an object"))
			continue
		}
		job, err := m.normalize(raw)
		if err != nil {
			dropRecord(m.logger, m.Name(), err)
			continue
		}
		jobs = append(jobs, job)
	}

	m.logger.Info("search done", zap.String("source", m.Name()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (m *Monster) normalize(raw map[string]any) (model.Job, error) {
	nativeID := idField(raw, "id", "jobId")
	if nativeID == "" {
		return model.Job{}, fmt.Errorf("missing native id")
	}

	job := model.Job{
		ExternalID:  externalID(m.Name(), nativeID),
		Source:      m.Name(),
		Title:       stringField(raw, "title", "jobTitle"),
		Company:     nestedString(raw, "company", "name"),
		Location:    monsterLocation(raw),
		Description: htmlToText(stringField(raw, "description", "summary")),
		URL:         stringField(raw, "url", "applyUrl"),
		JobType:     stringField(raw, "jobType", "employmentType"),
		RemoteType:  "onsite",
		SalaryMin:   nestedFloat(raw, "salary", "min"),
		SalaryMax:   nestedFloat(raw, "salary", "max"),
		RawData:     datatypes.JSONMap(raw),
	}
	if remote, _ := raw["isRemote"].(bool); remote {
		job.RemoteType = "remote"
	}
	if d := parseDate(raw["postedDate"]); d != nil {
		job.PostedDate = d
	} else {
		job.PostedDate = parseDate(raw["datePosted"])
	}
	return job, nil
}

func monsterLocation(raw map[string]any) string {
	switch loc := raw["location"].(type) {
	case string:
		return loc
	case map[string]any:
		city := stringField(loc, "city")
		state := stringField(loc, "state")
		switch {
		case city != "" && state != "":
			return city + ", " + state
		case city != "":
			return city
		default:
			return state
		}
	}
	return ""
}
