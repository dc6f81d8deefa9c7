package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/dto"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/scheduler"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/response"
)

// SchedulerHandler 定时任务模块 HTTP 处理器
type SchedulerHandler struct {
	schedSvc service.SchedulerService
}

// NewSchedulerHandler 创建 SchedulerHandler
func NewSchedulerHandler(schedSvc service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{schedSvc: schedSvc}
}

// ListJobs 查询任务状态快照
// GET /api/v1/scheduler/jobs
func (h *SchedulerHandler) ListJobs(c *gin.Context) {
	response.OK(c, h.schedSvc.Jobs())
}

// TriggerSyncNow 手动触发全量同步
// POST /api/v1/scheduler/sync-now
// 注册即返回 202，不等待同步执行
func (h *SchedulerHandler) TriggerSyncNow(c *gin.Context) {
	if err := h.schedSvc.TriggerSyncNow(); err != nil {
		if errors.Is(err, scheduler.ErrStopped) {
			response.Error(c, 503, 14001, "调度器已停止")
			return
		}
		response.Internal(c, 14002, "触发同步失败")
		return
	}

	response.Accepted(c, dto.TriggerResponse{
		Status:  "triggered",
		Message: "全量同步将在 2 秒后执行",
	})
}
