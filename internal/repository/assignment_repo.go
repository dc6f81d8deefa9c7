package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// AssignmentRepository 作业数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByCanvasID(ctx context.Context, canvasAssignmentID int64) (*model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	// ListDueBetween 查询截止时间落在 [from, to] 区间、未被远端删除的作业，按截止时间升序
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Assignment, error)
	// ListOverdue 查询截止时间早于 now、未被远端删除的作业，按截止时间降序
	ListOverdue(ctx context.Context, now time.Time) ([]model.Assignment, error)
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByCanvasID(ctx context.Context, canvasAssignmentID int64) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Where("canvas_assignment_id = ?", canvasAssignmentID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepo) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("due_at IS NOT NULL").
		Where("due_at >= ? AND due_at <= ?", from, to).
		Where("workflow_state IS NULL OR workflow_state <> ?", "deleted").
		Order("due_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListOverdue(ctx context.Context, now time.Time) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("due_at IS NOT NULL").
		Where("due_at < ?", now).
		Where("workflow_state IS NULL OR workflow_state <> ?", "deleted").
		Order("due_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
