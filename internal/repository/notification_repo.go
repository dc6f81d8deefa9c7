package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// NotificationRepository 通知记录数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, log *model.NotificationLog) error
	// HasRecent 滑动窗口抑制查询：是否存在同用户、同类别、同作业、
	// 发送时间晚于 since 的通知记录
	HasRecent(ctx context.Context, userID uint, kind model.NotificationType, assignmentCanvasID int64, since time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]model.NotificationLog, error)
	MarkRead(ctx context.Context, id uint) error
}

// notificationRepo NotificationRepository 的 GORM 实现
type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, log *model.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *notificationRepo) HasRecent(ctx context.Context, userID uint, kind model.NotificationType, assignmentCanvasID int64, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.NotificationLog{}).
		Where("user_id = ?", userID).
		Where("notification_type = ?", kind).
		Where("assignment_canvas_id = ?", assignmentCanvasID).
		Where("sent_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uint, limit int) ([]model.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []model.NotificationLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&model.NotificationLog{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
