package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"jobscout/internal/model"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Adzuna 调用 Adzuna 公开 API（免费额度），凭证为 app_id + app_key 查询参数。
type Adzuna struct {
	appID    string
	appKey   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewAdzuna 创建抓取器，凭证取自 ADZUNA_APP_ID / ADZUNA_APP_KEY。
func NewAdzuna(logger *zap.Logger, client *http.Client) *Adzuna {
	return &Adzuna{
		appID:    os.Getenv("ADZUNA_APP_ID"),
		appKey:   os.Getenv("ADZUNA_APP_KEY"),
		endpoint: "https://api.adzuna.com/v1/api/jobs/us/search/1",
		client:   defaultHTTPClient(client),
		logger:   logger,
	}
}

func (a *Adzuna) Name() string { return "adzuna" }

// Search 执行检索，任何失败降级为空结果。
func (a *Adzuna) Search(ctx context.Context, keywords, location string, opts Options) []model.Job {
	jobs, err := a.search(ctx, keywords, location, opts)
	if err != nil {
		a.logger.Warn("search failed", zap.String("source", a.Name()), zap.Error(err))
		return []model.Job{}
	}
	return jobs
}

func (a *Adzuna) search(ctx context.Context, keywords, location string, opts Options) ([]model.Job, error) {
	perPage := opts.ResultsPerPage
	if perPage <= 0 {
		perPage = 50
	}

	query := url.Values{}
	query.Set("app_id", a.appID)
	query.Set("app_key", a.appKey)
	query.Set("what", keywords)
	query.Set("where", location)
	query.Set("results_per_page", strconv.Itoa(perPage))
	query.Set("content-type", "application/json")
	if opts.MaxDaysOld > 0 {
		query.Set("max_days_old", strconv.Itoa(opts.MaxDaysOld))
	}
	if opts.SalaryMin > 0 {
		query.Set("salary_min", strconv.FormatFloat(opts.SalaryMin, 'f', -1, 64))
	}

	data, err := getJSON(ctx, a.client, a.endpoint, nil, query)
	if err != nil {
		return nil, err
	}

	rows := listField(data, "results")
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			dropRecord(a.logger, a.Name(), fmt.Errorf("record is not an object"))
			continue
		}
		job, err := a.normalize(raw)
		if err != nil {
			dropRecord(a.logger, a.Name(), err)
			continue
		}
		jobs = append(jobs, job)
	}

	a.logger.Info("search done", zap.String("source", a.Name()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (a *Adzuna) normalize(raw map[string]any) (model.Job, error) {
	nativeID := idField(raw, "id")
	if nativeID == "" {
		return model.Job{}, fmt.Errorf("missing native id")
	}

	job := model.Job{
		ExternalID:  externalID(a.Name(), nativeID),
		Source:      a.Name(),
		Title:       stringField(raw, "title"),
		Company:     nestedString(raw, "company", "display_name"),
		Location:    nestedString(raw, "location", "display_name"),
		Description: htmlToText(stringField(raw, "description")),
		URL:         stringField(raw, "redirect_url"),
		SalaryMin:   floatField(raw, "salary_min"),
		SalaryMax:   floatField(raw, "salary_max"),
		PostedDate:  parseDate(raw["created"]),
		RawData:     datatypes.JSONMap(raw),
	}
	if ct := stringField(raw, "contract_type"); ct != "" {
		job.JobType = strings.ReplaceAll(strings.ToLower(ct), "_", "-")
	}
	return job, nil
}
