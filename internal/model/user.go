package model

// User 用户表 — 对应 users
// 仅由用户同步创建/更新；canvas_user_id 是跨系统唯一稳定引用
type User struct {
	ID           uint    `gorm:"primaryKey"                json:"id"`
	CanvasUserID int64   `gorm:"not null;uniqueIndex:idx_users_canvas_user_id" json:"canvas_user_id"`
	Name         *string `gorm:"type:varchar(255)"         json:"name,omitempty"`
	Email        *string `gorm:"type:varchar(255)"         json:"email,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"     json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
