package model

import (
	"strings"
	"time"
)

// Assignment 作业表 — 对应 assignments
// 仅由作业同步创建/更新；course_id 为本地 courses.id 的显式外键，
// 关联查询由 Repository/Service 显式执行，不做隐式懒加载
type Assignment struct {
	ID                 uint       `gorm:"primaryKey"        json:"id"`
	CanvasAssignmentID int64      `gorm:"not null;uniqueIndex:idx_assignments_canvas_assignment_id" json:"canvas_assignment_id"`
	CourseID           uint       `gorm:"not null;index"    json:"course_id"`
	Name               *string    `gorm:"type:varchar(500)" json:"name,omitempty"`
	Description        *string    `gorm:"type:text"         json:"description,omitempty"`
	DueAt              *time.Time `gorm:"index"             json:"due_at,omitempty"`
	HTMLURL            *string    `gorm:"type:varchar(1000)" json:"html_url,omitempty"`
	SubmissionTypes    string     `gorm:"type:varchar(500)" json:"submission_types"` // 逗号拼接的提交方式集合
	PointsPossible     *float64   `json:"points_possible,omitempty"`
	WorkflowState      *string    `gorm:"type:varchar(50)"  json:"workflow_state,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// SubmissionTypeList 拆分逗号拼接的提交方式集合
func (a *Assignment) SubmissionTypeList() []string {
	if a.SubmissionTypes == "" {
		return nil
	}
	return strings.Split(a.SubmissionTypes, ",")
}
