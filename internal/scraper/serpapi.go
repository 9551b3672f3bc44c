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

// SerpAPI 通过 SerpAPI 的 google_jobs 引擎聚合多平台职位（免费额度）。
type SerpAPI struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewSerpAPI 创建抓取器，凭证取自 SERPAPI_KEY。
func NewSerpAPI(logger *zap.Logger, client *http.Client) *SerpAPI {
	return &SerpAPI{
		apiKey:   os.Getenv("SERPAPI_KEY"),
		endpoint: "https://serpapi.com/search",
		client:   defaultHTTPClient(client),
		logger:   logger,
	}
}

func (s *SerpAPI) Name() string { return "serpapi" }

// Search 执行检索，任何失败降级为空结果。
func (s *SerpAPI) Search(ctx context.Context, keywords, location string, opts Options) []model.Job {
	jobs, err := s.search(ctx, keywords, location, opts)
	if err != nil {
		s.logger.Warn("search failed", zap.String("source", s.Name()), zap.Error(err))
		return []model.Job{}
	}
	return jobs
}

func (s *SerpAPI) search(ctx context.Context, keywords, location string, opts Options) ([]model.Job, error) {
	if location == "" {
		location = "United States"
	}

	query := url.Values{}
	query.Set("api_key", s.apiKey)
	query.Set("engine", "google_jobs")
	query.Set("q", keywords)
	query.Set("location", location)
	query.Set("hl", "en")
	query.Set("gl", "us")
	if opts.DatePosted != "" {
		query.Set("chips", "date_posted:"+opts.DatePosted)
	}

	data, err := getJSON(ctx, s.client, s.endpoint, nil, query)
	if err != nil {
		return nil, err
	}

	rows := listField(data, "jobs_results")
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			dropRecord(s.logger, s.Name(), fmt.Errorf("record is not an object"))
			continue
		}
		job, err := s.normalize(raw)
		if err != nil {
			dropRecord(s.logger, s.Name(), err)
			continue
		}
		jobs = append(jobs, job)
	}

	s.logger.Info("search done", zap.String("source", s.Name()), zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (s *SerpAPI) normalize(raw map[string]any) (model.Job, error) {
	nativeID := idField(raw, "job_id")
	if nativeID == "" {
		return model.Job{}, fmt.Errorf("missing native id")
	}

	ext, _ := raw["detected_extensions"].(map[string]any)

	job := model.Job{
		ExternalID:  externalID(s.Name(), nativeID),
		Source:      s.Name(),
		Title:       stringField(raw, "title"),
		Company:     stringField(raw, "company_name"),
		Location:    stringField(raw, "location"),
		Description: s.buildDescription(raw),
		URL:         s.pickURL(raw),
		RemoteType:  "onsite",
		RawData:     datatypes.JSONMap(raw),
	}
	if ext != nil {
		job.JobType = stringField(ext, "schedule_type")
		if wfh, _ := ext["work_from_home"].(bool); wfh {
			job.RemoteType = "remote"
		}
		job.PostedDate = parseDate(ext["posted_at"])
	}
	return job, nil
}

// buildDescription 拼接描述与 job_highlights 要点。
func (s *SerpAPI) buildDescription(raw map[string]any) string {
	var sb strings.Builder
	sb.WriteString(stringField(raw, "description"))

	highlights := listField(raw, "job_highlights")
	if len(highlights) == 0 {
		return sb.String()
	}

	sb.WriteString("\n\nHighlights:\n")
	for _, h := range highlights {
		section, ok := h.(map[string]any)
		if !ok {
			continue
		}
		items := listField(section, "items")
		if len(items) == 0 {
			continue
		}
		sb.WriteString("\n" + stringField(section, "title") + ":\n")
		for _, item := range items {
			if text, ok := item.(string); ok {
				sb.WriteString("- " + text + "\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// pickURL 依次尝试 share_url、apply_options、related_links。
func (s *SerpAPI) pickURL(raw map[string]any) string {
	if u := stringField(raw, "share_url"); u != "" {
		return u
	}
	for _, key := range []string{"apply_options", "related_links"} {
		for _, entry := range listField(raw, key) {
			if obj, ok := entry.(map[string]any); ok {
				if u := stringField(obj, "link"); u != "" {
					return u
				}
			}
		}
	}
	return ""
}
