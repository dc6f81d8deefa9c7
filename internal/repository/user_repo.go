package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// UserRepository 用户数据访问接口
// 按 Canvas 外部 ID 查找是同步引擎唯一的跨系统引用方式
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByCanvasID(ctx context.Context, canvasUserID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByCanvasID(ctx context.Context, canvasUserID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("canvas_user_id = ?", canvasUserID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
