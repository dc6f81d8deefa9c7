package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// SyncRunRepository 同步流水数据访问接口（追加型账本，不提供删除）
type SyncRunRepository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	GetByID(ctx context.Context, id uint) (*model.SyncRun, error)
	Update(ctx context.Context, run *model.SyncRun) error
	ListRecent(ctx context.Context, limit int) ([]model.SyncRun, error)
}

// syncRunRepo SyncRunRepository 的 GORM 实现
type syncRunRepo struct {
	db *gorm.DB
}

// NewSyncRunRepo 创建 SyncRunRepository 实例
func NewSyncRunRepo(db *gorm.DB) SyncRunRepository {
	return &syncRunRepo{db: db}
}

func (r *syncRunRepo) Create(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *syncRunRepo) GetByID(ctx context.Context, id uint) (*model.SyncRun, error) {
	var run model.SyncRun
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *syncRunRepo) Update(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *syncRunRepo) ListRecent(ctx context.Context, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.SyncRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
