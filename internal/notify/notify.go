package notify

import (
	"context"

	"jobscout/internal/model"

	"go.uber.org/zap"
)

// Notifier 用于推送新增职位。
type Notifier interface {
	Notify(ctx context.Context, jobs []model.Job) error
}

// LogNotifier 仅打印新增职位，适合开发阶段使用。
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器。
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify 逐条打印新增职位信息。
func (n LogNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	for _, job := range jobs {
		n.logger.Info("new job",
			zap.String("title", job.Title),
			zap.String("company", job.Company),
			zap.String("source", job.Source),
			zap.String("url", job.URL))
	}
	return nil
}

// Multi 将多个通知器合并为一个，逐个调用并返回首个错误。
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, jobs []model.Job) error {
	for _, n := range m {
		if err := n.Notify(ctx, jobs); err != nil {
			return err
		}
	}
	return nil
}
