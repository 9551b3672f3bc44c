package agent

import (
	"context"
	"fmt"
	"time"

	"jobscout/internal/model"
	"jobscout/internal/scraper"
	"jobscout/internal/storage"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Store 抽象存储接口，便于测试替换。
type Store interface {
	SaveJobs(ctx context.Context, jobs []model.Job) (storage.SaveResult, error)
	SaveSearchHistory(ctx context.Context, history *model.SearchHistory) error
	ListJobs(ctx context.Context, query storage.JobQuery) ([]model.Job, error)
}

// Analyzer 抽象批量分析接口。
type Analyzer interface {
	BatchAnalyze(ctx context.Context, jobs []model.Job, maxJobs int) []model.Job
}

// Agent 串联抓取、分析与持久化的编排器。
// 单次调用为线性流程：顺序扇出 -> 拼接 -> 可选分析 -> 可选入库。
type Agent struct {
	scrapers   []scraper.Scraper
	enabled    map[string]bool
	analyzer   Analyzer
	store      Store
	maxAnalyze int
	logger     *zap.Logger
}

// New 创建 Agent。scrapers 的注册顺序决定合并结果的平台顺序；
// enabled 缺失的平台默认启用；maxAnalyze <= 0 时由分析器取默认上限。
func New(scrapers []scraper.Scraper, enabled map[string]bool, an Analyzer, store Store, maxAnalyze int, logger *zap.Logger) *Agent {
	return &Agent{
		scrapers:   scrapers,
		enabled:    enabled,
		analyzer:   an,
		store:      store,
		maxAnalyze: maxAnalyze,
		logger:     logger,
	}
}

// SearchRequest 描述一次检索调用。
type SearchRequest struct {
	Keywords string
	Location string
	Analyze  bool
	SaveToDB bool
	Options  scraper.Options
}

// SearchResult 为检索响应。
// PlatformBreakdown 与 SearchHistory 一致，记录去重前的平台原始数量；
// NewJobsSaved 为去重后的实际入库数，二者可能不同。
type SearchResult struct {
	Keywords          string         `json:"keywords"`
	Location          string         `json:"location"`
	TotalJobs         int            `json:"total_jobs"`
	NewJobsSaved      int            `json:"new_jobs_saved"`
	PlatformBreakdown map[string]int `json:"platform_breakdown"`
	Jobs              []model.Job    `json:"jobs"`
	Timestamp         time.Time      `json:"timestamp"`

	// NewJobs 仅供进程内消费（如通知），不进响应体。
	NewJobs []model.Job `json:"-"`
}

// ExecuteSearch 执行完整检索流程。
// 单个平台失败降级为空结果，不影响其余平台；
// 数据库事务级错误向上抛出，整批回滚。
func (a *Agent) ExecuteSearch(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	a.logger.Info("starting job search",
		zap.String("keywords", req.Keywords),
		zap.String("location", req.Location))

	breakdown := map[string]int{}
	queried := make([]string, 0, len(a.scrapers))
	var merged []model.Job

	for _, sc := range a.scrapers {
		if !a.isEnabled(sc.Name()) {
			a.logger.Debug("platform disabled, skipping", zap.String("source", sc.Name()))
			continue
		}

		a.logger.Info("searching platform",
			zap.String("source", sc.Name()),
			zap.String("keywords", req.Keywords))

		jobs := sc.Search(ctx, req.Keywords, req.Location, req.Options)
		breakdown[sc.Name()] = len(jobs)
		queried = append(queried, sc.Name())
		merged = append(merged, jobs...)
	}

	a.logger.Info("platforms merged", zap.Int("total_jobs", len(merged)))

	if req.Analyze && len(merged) > 0 && a.analyzer != nil {
		merged = a.analyzer.BatchAnalyze(ctx, merged, a.maxAnalyze)
	}

	saved := 0
	var newJobs []model.Job
	if req.SaveToDB && len(merged) > 0 {
		res, err := a.store.SaveJobs(ctx, merged)
		if err != nil {
			return nil, fmt.Errorf("save jobs: %w", err)
		}
		saved = res.Saved
		newJobs = res.NewJobs

		params := req.Options.ToMap()
		for _, source := range queried {
			history := &model.SearchHistory{
				Keywords:     req.Keywords,
				Location:     req.Location,
				Source:       source,
				ResultsCount: breakdown[source],
				Parameters:   datatypes.JSONMap(params),
			}
			if err := a.store.SaveSearchHistory(ctx, history); err != nil {
				return nil, fmt.Errorf("save search history: %w", err)
			}
		}
	}

	a.logger.Info("search complete",
		zap.Int("total_jobs", len(merged)),
		zap.Int("new_jobs_saved", saved))

	return &SearchResult{
		Keywords:          req.Keywords,
		Location:          req.Location,
		TotalJobs:         len(merged),
		NewJobsSaved:      saved,
		PlatformBreakdown: breakdown,
		Jobs:              merged,
		Timestamp:         time.Now().UTC(),
		NewJobs:           newJobs,
	}, nil
}

// GetJobs 从数据库读取职位，支持按来源与关键字过滤。
func (a *Agent) GetJobs(ctx context.Context, limit int, source, keywords string) ([]model.Job, error) {
	return a.store.ListJobs(ctx, storage.JobQuery{Limit: limit, Source: source, Keywords: keywords})
}

func (a *Agent) isEnabled(name string) bool {
	if a.enabled == nil {
		return true
	}
	enabled, ok := a.enabled[name]
	if !ok {
		return true
	}
	return enabled
}
