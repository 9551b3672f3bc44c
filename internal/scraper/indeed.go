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

// rapidAPIHeaders 构造 RapidAPI 网关要求的认证头。
func rapidAPIHeaders(apiKey, host string) map[string]string {
	return map[string]string{
		"X-RapidAPI-Key":  apiKey,
		"X-RapidAPI-Host": host,
	}
}

// Indeed 通过 RapidAPI 的 indeed12 服务抓取 Indeed 职位。
type Indeed struct {
	apiKey   string
	apiHost  string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewIndeed 创建抓取器，凭证取自 RAPIDAPI_KEY。
func NewIndeed(logger *zap.Logger, client *http.Client) *Indeed {
	return &Indeed{
		apiKey:   os.Getenv("RAPIDAPI_KEY"),
		apiHost:  "indeed12.p.rapidapi.com",
		endpoint: "https://indeed12.p.rapidapi.com/jobs/search",
		client:   defaultHTTPClient(client),
		logger:   logger,
	}
}

func (i *Indeed) Name() string { return "indeed" }

// Search 执行检索，任何失败降级为空结果。
func (i *Indeed) Search(ctx context.Context, keywords, location string, opts Options) []model.Job {
	jobs, err := i.search(ctx, keywords, location, opts)
	if err != nil {
		i.logger.Warn("search failed", zap.String("source", i.Name()), zap.Error(err))
		return []model.Job{}
	}
	return jobs
}

func (i *Indeed) search(ctx context.Context, keywords, location string, opts Options) ([]model.Job, error) {
	if location == "" {
		location = "United States"
	}
	page := opts.Page
	if page == "" {
		page = "1"
	}
	locality := opts.Locality
	if locality == "" {
		locality = "us"
	}

	query := url.Values{}
	query.Set("query", keywords)
	query.Set("location", location)
	query.Set("page_id", page)
	query.Set("locality", locality)
	if opts.DatePosted != "" {
		query.Set("date_posted", opts.DatePosted)
	}
	if opts.JobType != "" {
		query.Set("job_type", opts.JobType)
	}
	if opts.Remote {
		query.Set("remote", "true")
	}

	data, err := getJSON(ctx, i.client, i.endpoint, rapidAPIHeaders(i.apiKey, i.apiHost), query)
	if err != nil {
		return nil, err
	}

	rows := listField(data, "hits")
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			dropRecord(i.logger, i.Name(), fmt.Errorf("record is not an object"))
			continue
		}
		job, err := i.normalize(raw)
		if err != nil {
			dropRecord(i.logger, i.Name(), err)
			continue
		}
		jobs = append(jobs, job)
	}

	i.logger.Info("search done", zap.String("source", i.Name()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (i *Indeed) normalize(raw map[string]any) (model.Job, error) {
	nativeID := idField(raw, "id", "job_id")
	if nativeID == "" {
		return model.Job{}, fmt.Errorf("missing native id")
	}

	job := model.Job{
		ExternalID:  externalID(i.Name(), nativeID),
		Source:      i.Name(),
		Title:       stringField(raw, "title"),
		Company:     stringField(raw, "company_name", "company"),
		Location:    i.pickLocation(raw),
		Description: htmlToText(stringField(raw, "description", "snippet")),
		URL:         stringField(raw, "url"),
		JobType:     stringField(raw, "job_type", "employment_type"),
		RemoteType:  "onsite",
		SalaryMin:   nestedFloat(raw, "salary", "min"),
		SalaryMax:   nestedFloat(raw, "salary", "max"),
		RawData:     datatypes.JSONMap(raw),
	}
	if job.URL == "" {
		job.URL = "https://www.indeed.com/viewjob?jk=" + nativeID
	}
	if remote, _ := raw["remote"].(bool); remote {
		job.RemoteType = "remote"
	} else if rt := stringField(raw, "remote_type"); rt != "" {
		job.RemoteType = rt
	}
	if d := parseDate(raw["pub_date_ts_milli"]); d != nil {
		job.PostedDate = d
	} else {
		job.PostedDate = parseDate(raw["date_posted"])
	}
	return job, nil
}

// pickLocation 处理字符串或 {city,state} 对象两种形态。
func (i *Indeed) pickLocation(raw map[string]any) string {
	switch loc := raw["location"].(type) {
	case string:
		return loc
	case map[string]any:
		city := stringField(loc, "city")
		state := stringField(loc, "state")
		return strings.Trim(city+", "+state, ", ")
	}
	return ""
}
