package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationLog 通知记录表 — 对应 notification_logs
// 既是通知记录，也是去重键存储：抑制查询走
// (user_id, notification_type, assignment_canvas_id, sent_at) 结构化组合索引，
// 不再对序列化文本做子串匹配
type NotificationLog struct {
	ID                 uint             `gorm:"primaryKey"                 json:"id"`
	UserID             uint             `gorm:"not null;index"             json:"user_id"`
	NotificationType   NotificationType `gorm:"type:varchar(50);not null"  json:"notification_type"`
	Title              string           `gorm:"type:varchar(500);not null" json:"title"`
	Message            string           `gorm:"type:text;not null"         json:"message"`
	SentAt             time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"sent_at"`
	IsRead             bool             `gorm:"not null;default:false"     json:"is_read"`
	AssignmentCanvasID *int64           `json:"assignment_canvas_id,omitempty"`
	ExtraData          datatypes.JSON   `gorm:"type:jsonb"                 json:"extra_data,omitempty"`
}

// TableName 指定表名
func (NotificationLog) TableName() string { return "notification_logs" }
