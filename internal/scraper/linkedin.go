package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"jobscout/internal/model"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// linkedinLocationIDs 常用地区到 LinkedIn 地区 ID 的映射，缺省回落到美国。
var linkedinLocationIDs = map[string]string{
	"united states": "103644278",
	"remote":        "103644278",
	"new york":      "102571732",
	"san francisco": "102277331",
	"london":        "102299470",
}

// LinkedIn 通过 RapidAPI 的 linkedin-data-api 服务抓取 LinkedIn 职位。
type LinkedIn struct {
	apiKey   string
	apiHost  string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewLinkedIn 创建抓取器，凭证取自 RAPIDAPI_KEY。
func NewLinkedIn(logger *zap.Logger, client *http.Client) *LinkedIn {
	return &LinkedIn{
		apiKey:   os.Getenv("RAPIDAPI_KEY"),
		apiHost:  "linkedin-data-api.p.rapidapi.com",
		endpoint: "https://linkedin-data-api.p.rapidapi.com/search-jobs",
		client:   defaultHTTPClient(client),
		logger:   logger,
	}
}

func (l *LinkedIn) Name() string { return "linkedin" }

// Search 执行检索，任何失败降级为空结果。
func (l *LinkedIn) Search(ctx context.Context, keywords, location string, opts Options) []model.Job {
	jobs, err := l.search(ctx, keywords, location, opts)
	if err != nil {
		l.logger.Warn("search failed", zap.String("source", l.Name()), zap.Error(err))
		return []model.Job{}
	}
	return jobs
}

func (l *LinkedIn) search(ctx context.Context, keywords, location string, opts Options) ([]model.Job, error) {
	datePosted := opts.DatePosted
	if datePosted == "" {
		datePosted = "anyTime"
	}
	sort := opts.Sort
	if sort == "" {
		sort = "mostRelevant"
	}

	query := url.Values{}
	query.Set("keywords", keywords)
	query.Set("locationId", locationID(location))
	query.Set("datePosted", datePosted)
	query.Set("sort", sort)
	if opts.JobType != "" {
		query.Set("jobType", opts.JobType)
	}
	if opts.ExperienceLevel != "" {
		query.Set("experienceLevel", opts.ExperienceLevel)
	}

	data, err := getJSON(ctx, l.client, l.endpoint, rapidAPIHeaders(l.apiKey, l.apiHost), query)
	if err != nil {
		return nil, err
	}

	rows := listField(data, "data")
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			dropRecord(l.logger, l.Name(), fmt.Errorf("record is not an object"))
			continue
		}
		job, err := l.normalize(raw)
		if err != nil {
			dropRecord(l.logger, l.Name(), err)
			continue
		}
		jobs = append(jobs, job)
	}

	l.logger.Info("search done", zap.String("source", l.Name()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (l *LinkedIn) normalize(raw map[string]any) (model.Job, error) {
	nativeID := idField(raw, "id", "jobId")
	if nativeID == "" {
		return model.Job{}, fmt.Errorf("missing native id")
	}

	job := model.Job{
		ExternalID:  externalID(l.Name(), nativeID),
		Source:      l.Name(),
		Title:       stringField(raw, "title"),
		Company:     nestedString(raw, "company", "name"),
		Location:    stringField(raw, "location"),
		Description: htmlToText(stringField(raw, "description")),
		URL:         stringField(raw, "url"),
		JobType:     stringField(raw, "jobType", "employmentType"),
		RemoteType:  workplaceType(stringField(raw, "workplaceType")),
		SalaryMin:   nestedFloat(raw, "salary", "min"),
		SalaryMax:   nestedFloat(raw, "salary", "max"),
		RawData:     datatypes.JSONMap(raw),
	}
	if job.URL == "" {
		job.URL = "https://www.linkedin.com/jobs/view/" + nativeID
	}
	if d := parseDate(raw["postedAt"]); d != nil {
		job.PostedDate = d
	} else {
		job.PostedDate = parseDate(raw["listedAt"])
	}
	return job, nil
}

func locationID(location string) string {
	if id, ok := linkedinLocationIDs[strings.ToLower(strings.TrimSpace(location))]; ok {
		return id
	}
	return linkedinLocationIDs["united states"]
}

func workplaceType(v string) string {
	v = strings.ToLower(v)
	switch {
	case strings.Contains(v, "remote"):
		return "remote"
	case strings.Contains(v, "hybrid"):
		return "hybrid"
	default:
		return "onsite"
	}
}
