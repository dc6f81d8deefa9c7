package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/config"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/api/handler"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/api/router"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/canvas"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/scheduler"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/service"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/database"
	applogger "github.com/canvas-ai-labs/canvas-core-backend/pkg/logger"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，洞察接口直查数据库）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，洞察缓存不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 Canvas 客户端
	provider, err := canvas.NewClient(&cfg.Canvas)
	if err != nil {
		logger.Fatal("Canvas 客户端初始化失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	sched := scheduler.New(logger)
	svc := service.NewService(cfg, repo, provider, rdb, sched, logger)
	h := handler.NewHandler(cfg, svc, repo)

	// 7. 注册定时任务
	if err := svc.Scheduler.Start(); err != nil {
		logger.Fatal("定时任务注册失败", zap.Error(err))
	}

	// 8. 初始化路由
	engine := router.Setup(cfg, h, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 同步接口等待对账完成
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 停止调度器，等待在途任务结束
	svc.Scheduler.Stop()

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("应用已退出")
}
