package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/dto"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notifierSvc   service.NotifierService
	defaultUserID uint
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notifierSvc service.NotifierService, defaultUserID uint) *NotificationHandler {
	return &NotificationHandler{notifierSvc: notifierSvc, defaultUserID: defaultUserID}
}

// ListNotifications 查询最近的通知记录
// GET /api/v1/notifications?limit=50
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.notifierSvc.ListNotifications(c.Request.Context(), h.defaultUserID, limit)
	if err != nil {
		response.Internal(c, 16001, "查询通知记录失败")
		return
	}

	items := make([]*dto.NotificationResponse, 0, len(logs))
	for i := range logs {
		items = append(items, dto.NewNotificationResponse(&logs[i]))
	}
	response.OK(c, items)
}

// MarkRead 标记通知为已读
// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, 10001, "通知 ID 非法")
		return
	}

	if err := h.notifierSvc.MarkRead(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 16002, "通知不存在")
			return
		}
		response.Internal(c, 16003, "标记已读失败")
		return
	}
	response.OK(c, gin.H{"id": uint(id), "is_read": true})
}
