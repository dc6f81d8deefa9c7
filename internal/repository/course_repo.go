package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByCanvasID(ctx context.Context, canvasCourseID int64) (*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	List(ctx context.Context) ([]model.Course, error)
	ListByIDs(ctx context.Context, ids []uint) ([]model.Course, error)
}

// courseRepo CourseRepository 的 GORM 实现
type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByCanvasID(ctx context.Context, canvasCourseID int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("canvas_course_id = ?", canvasCourseID).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Order("canvas_course_id").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ListByIDs 按本地主键批量查询（Notifier/Insight 做显式关联时使用）
func (r *courseRepo) ListByIDs(ctx context.Context, ids []uint) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}
