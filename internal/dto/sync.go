package dto

import (
	"time"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
)

// SyncAssignmentsRequest 作业同步请求
// CourseIDs 为空时从 Canvas 重新推导当前课程列表，而非读本地库
type SyncAssignmentsRequest struct {
	CourseIDs []int64 `json:"course_ids"`
	UserID    uint    `json:"user_id"`
}

// SyncRequest 通用同步请求
type SyncRequest struct {
	UserID uint `json:"user_id"`
}

// SyncRunResponse 同步流水响应（同步触发方拿到的终态）
type SyncRunResponse struct {
	SyncID         uint       `json:"sync_id"`
	SyncType       string     `json:"sync_type"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ItemsProcessed int        `json:"items_processed"`
	ItemsCreated   int        `json:"items_created"`
	ItemsUpdated   int        `json:"items_updated"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// NewSyncRunResponse 由模型构造响应
func NewSyncRunResponse(run *model.SyncRun) *SyncRunResponse {
	resp := &SyncRunResponse{
		SyncID:         run.ID,
		SyncType:       string(run.SyncType),
		Status:         string(run.Status),
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
		ItemsProcessed: run.ItemsProcessed,
		ItemsCreated:   run.ItemsCreated,
		ItemsUpdated:   run.ItemsUpdated,
	}
	if run.ErrorMessage != nil {
		resp.ErrorMessage = *run.ErrorMessage
	}
	return resp
}
