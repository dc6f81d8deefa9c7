package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/response"
)

// InsightHandler 学业洞察模块 HTTP 处理器
type InsightHandler struct {
	insightSvc service.InsightService
}

// NewInsightHandler 创建 InsightHandler
func NewInsightHandler(insightSvc service.InsightService) *InsightHandler {
	return &InsightHandler{insightSvc: insightSvc}
}

// UpcomingDeadlines 即将截止的作业
// GET /api/v1/insights/deadlines?days=7
func (h *InsightHandler) UpcomingDeadlines(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	items, err := h.insightSvc.UpcomingDeadlines(c.Request.Context(), days)
	if err != nil {
		response.Internal(c, 15001, "查询临期作业失败")
		return
	}
	response.OK(c, items)
}

// OverdueAssignments 已逾期的作业
// GET /api/v1/insights/overdue
func (h *InsightHandler) OverdueAssignments(c *gin.Context) {
	items, err := h.insightSvc.OverdueAssignments(c.Request.Context())
	if err != nil {
		response.Internal(c, 15002, "查询逾期作业失败")
		return
	}
	response.OK(c, items)
}

// CourseWorkload 按课程聚合的工作量分析
// GET /api/v1/insights/workload?days=14
func (h *InsightHandler) CourseWorkload(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))

	items, err := h.insightSvc.CourseWorkload(c.Request.Context(), days)
	if err != nil {
		response.Internal(c, 15003, "工作量分析失败")
		return
	}
	response.OK(c, items)
}
