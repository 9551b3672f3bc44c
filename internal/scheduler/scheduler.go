package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"jobscout/internal/agent"
	"jobscout/internal/config"
	"jobscout/internal/notify"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runTimeout = 10 * time.Minute

// SearchRunner 抽象编排器接口，便于测试替换。
type SearchRunner interface {
	ExecuteSearch(ctx context.Context, req agent.SearchRequest) (*agent.SearchResult, error)
}

// Scheduler 按 cron 表达式周期性执行配置的检索项，
// 并把新增职位推送给通知器。
type Scheduler struct {
	runner  SearchRunner
	notif   notify.Notifier
	cfg     config.ScheduleConfig
	logger  *zap.Logger
	running atomic.Bool
}

// New 创建 Scheduler。
func New(runner SearchRunner, notif notify.Notifier, cfg config.ScheduleConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, notif: notif, cfg: cfg, logger: logger}
}

// Start 启动调度循环，直到上下文取消。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.runner == nil {
		return fmt.Errorf("scheduler missing search runner")
	}
	if len(s.cfg.Searches) == 0 {
		s.logger.Info("no scheduled searches configured, scheduler idle")
		<-ctx.Done()
		return ctx.Err()
	}

	spec := s.cfg.Cron
	if spec == "" {
		spec = "0 */6 * * *"
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled search failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	s.logger.Info("scheduler started",
		zap.String("cron", spec),
		zap.Int("searches", len(s.cfg.Searches)))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// RunOnce 执行一轮全部配置检索，供定时触发与手动刷新共用。
// 上一轮未结束时直接跳过，避免重入。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.running.Swap(true) {
		s.logger.Warn("previous run still in progress, skipping")
		return nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	for _, search := range s.cfg.Searches {
		result, err := s.runner.ExecuteSearch(ctx, agent.SearchRequest{
			Keywords: search.Keywords,
			Location: search.Location,
			Analyze:  search.Analyze,
			SaveToDB: true,
		})
		if err != nil {
			return fmt.Errorf("scheduled search %q: %w", search.Keywords, err)
		}

		s.logger.Info("scheduled search complete",
			zap.String("keywords", search.Keywords),
			zap.Int("total_jobs", result.TotalJobs),
			zap.Int("new_jobs_saved", result.NewJobsSaved))

		if s.notif != nil && len(result.NewJobs) > 0 {
			if err := s.notif.Notify(ctx, result.NewJobs); err != nil {
				return fmt.Errorf("notify: %w", err)
			}
		}
	}
	return nil
}
