package dto

import (
	"encoding/json"
	"time"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// NotificationResponse 通知记录响应
type NotificationResponse struct {
	ID                 uint            `json:"id"`
	NotificationType   string          `json:"notification_type"`
	Title              string          `json:"title"`
	Message            string          `json:"message"`
	SentAt             time.Time       `json:"sent_at"`
	IsRead             bool            `json:"is_read"`
	AssignmentCanvasID *int64          `json:"assignment_canvas_id,omitempty"`
	ExtraData          json.RawMessage `json:"extra_data,omitempty"`
}

// NewNotificationResponse 由模型构造响应
func NewNotificationResponse(log *model.NotificationLog) *NotificationResponse {
	return &NotificationResponse{
		ID:                 log.ID,
		NotificationType:   string(log.NotificationType),
		Title:              log.Title,
		Message:            log.Message,
		SentAt:             log.SentAt,
		IsRead:             log.IsRead,
		AssignmentCanvasID: log.AssignmentCanvasID,
		ExtraData:          json.RawMessage(log.ExtraData),
	}
}
