package model

// Course 课程表 — 对应 courses
// 仅由课程同步创建/更新；被 Assignment 以显式外键引用
type Course struct {
	ID             uint    `gorm:"primaryKey"                json:"id"`
	CanvasCourseID int64   `gorm:"not null;uniqueIndex:idx_courses_canvas_course_id" json:"canvas_course_id"`
	Name           *string `gorm:"type:varchar(255)"         json:"name,omitempty"`
	CourseCode     *string `gorm:"type:varchar(100)"         json:"course_code,omitempty"`
	WorkflowState  *string `gorm:"type:varchar(50)"          json:"workflow_state,omitempty"`
	SyllabusBody   *string `gorm:"type:text"                 json:"syllabus_body,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
