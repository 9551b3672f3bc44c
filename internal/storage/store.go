package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"jobscout/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store 封装 SQLite 数据库访问。
// 建表/删表是显式生命周期操作，读写路径不做隐式迁移；
// 写入统一走事务，异常路径回滚并向上抛错。
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// SaveResult 表示职位批量写入结果。
type SaveResult struct {
	Saved   int
	NewJobs []model.Job
}

// JobQuery 提供职位查询过滤条件。
type JobQuery struct {
	Limit    int
	Source   string
	Keywords string
}

// Stats 汇总数据库统计信息。
type Stats struct {
	TotalJobs      int64            `json:"total_jobs"`
	JobsBySource   map[string]int64 `json:"jobs_by_source"`
	RecentSearches int64            `json:"recent_searches"`
}

// NewStore 创建 Store，不做任何表结构迁移。
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// CreateTables 幂等建表。
func (s *Store) CreateTables() error {
	if err := s.db.AutoMigrate(&model.Job{}, &model.SearchHistory{}, &model.UserProfile{}); err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	return nil
}

// DropTables 幂等删表。
func (s *Store) DropTables() error {
	if err := s.db.Migrator().DropTable(&model.Job{}, &model.SearchHistory{}, &model.UserProfile{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// SaveJobs 在单个事务内写入职位列表：
// external_id 缺失的记录跳过（记日志），已存在的记录跳过不更新；
// 事务级错误整体回滚并向上抛出。
func (s *Store) SaveJobs(ctx context.Context, jobs []model.Job) (SaveResult, error) {
	res := SaveResult{}
	if len(jobs) == 0 {
		return res, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range jobs {
			job := jobs[i]
			if job.ExternalID == "" {
				s.logger.Warn("job missing external_id, skipping", zap.String("title", job.Title))
				continue
			}

			var count int64
			if err := tx.Model(&model.Job{}).Where("external_id = ?", job.ExternalID).Count(&count).Error; err != nil {
				return fmt.Errorf("query existing job: %w", err)
			}
			if count > 0 {
				s.logger.Debug("job already exists, skipping", zap.String("external_id", job.ExternalID))
				continue
			}

			if err := tx.Create(&job).Error; err != nil {
				return fmt.Errorf("create job %s: %w", job.ExternalID, err)
			}
			res.Saved++
			res.NewJobs = append(res.NewJobs, job)
		}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}

	s.logger.Info("saved new jobs", zap.Int("count", res.Saved))
	return res, nil
}

// SaveSearchHistory 记录一次检索。
func (s *Store) SaveSearchHistory(ctx context.Context, history *model.SearchHistory) error {
	if err := s.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("create search history: %w", err)
	}
	return nil
}

// ListJobs 返回按抓取时间倒序的有效职位。
func (s *Store) ListJobs(ctx context.Context, query JobQuery) ([]model.Job, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	db := s.db.WithContext(ctx).Model(&model.Job{}).Where("is_active = ?", true)
	if query.Source != "" {
		db = db.Where("source = ?", query.Source)
	}
	if query.Keywords != "" {
		pattern := "%" + query.Keywords + "%"
		db = db.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var jobs []model.Job
	if err := db.Order("scraped_date DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// GetJob 根据主键获取职位。
func (s *Store) GetJob(ctx context.Context, id uint) (*model.Job, error) {
	var job model.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// GetStats 汇总有效职位总数、按来源分布与检索历史条数。
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{JobsBySource: map[string]int64{}}

	if err := s.db.WithContext(ctx).Model(&model.Job{}).Where("is_active = ?", true).Count(&stats.TotalJobs).Error; err != nil {
		return Stats{}, fmt.Errorf("count jobs: %w", err)
	}

	var rows []struct {
		Source string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Job{}).
		Select("source, count(*) as count").
		Where("is_active = ?", true).
		Group("source").
		Scan(&rows).Error; err != nil {
		return Stats{}, fmt.Errorf("count jobs by source: %w", err)
	}
	for _, row := range rows {
		stats.JobsBySource[row.Source] = row.Count
	}

	if err := s.db.WithContext(ctx).Model(&model.SearchHistory{}).Count(&stats.RecentSearches).Error; err != nil {
		return Stats{}, fmt.Errorf("count search history: %w", err)
	}
	return stats, nil
}
