package model

import "time"

// SyncRun 同步流水表 — 对应 sync_runs
// 每次同步操作一行，只追加不删除；由 Orchestrator 专属创建，
// 单行只属于一次进行中的操作，不跨操作共享写入。
// 计数器在运行期间单调不减；状态从 running 恰好迁移一次到终态
type SyncRun struct {
	ID             uint       `gorm:"primaryKey"                 json:"id"`
	UserID         uint       `gorm:"not null;index"             json:"user_id"`
	SyncType       SyncType   `gorm:"type:varchar(20);not null"  json:"sync_type"`
	Status         SyncStatus `gorm:"type:varchar(20);not null"  json:"status"`
	StartedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ItemsProcessed int        `gorm:"not null;default:0"         json:"items_processed"`
	ItemsCreated   int        `gorm:"not null;default:0"         json:"items_created"`
	ItemsUpdated   int        `gorm:"not null;default:0"         json:"items_updated"`
	ErrorMessage   *string    `gorm:"type:text"                  json:"error_message,omitempty"`
}

// TableName 指定表名
func (SyncRun) TableName() string { return "sync_runs" }
