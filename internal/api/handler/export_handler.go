package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDeadlinesXLSX 导出截止清单 Excel
// GET /api/v1/export/deadlines.xlsx?days=30
func (h *ExportHandler) ExportDeadlinesXLSX(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	buf, filename, err := h.exportSvc.ExportDeadlinesXLSX(c.Request.Context(), days)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	h.sendFile(c, contentType, filename, buf.Bytes())
}

// ExportCalendarICS 导出截止日历 iCalendar
// GET /api/v1/export/calendar.ics?days=30
func (h *ExportHandler) ExportCalendarICS(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	buf, filename, err := h.exportSvc.ExportCalendarICS(c.Request.Context(), days)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.sendFile(c, "text/calendar; charset=utf-8", filename, buf.Bytes())
}

// sendFile 设置下载响应头并写出文件内容
func (h *ExportHandler) sendFile(c *gin.Context, contentType, filename string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoAssignments):
		response.NotFound(c, 17001, "窗口内没有可导出的作业")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Internal(c, 17002, "生成导出文件失败")
	default:
		response.Internal(c, 17003, "导出失败")
	}
}
