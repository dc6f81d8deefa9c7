package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestNotifierService(now time.Time) (*notifierService, *repository.Repository) {
	repo := newTestRepo()
	svc := NewNotifierService(repo, zap.NewNop()).(*notifierService)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func seedAssignment(t *testing.T, repo *repository.Repository, canvasID int64, name string, dueAt time.Time) {
	t.Helper()
	course := &model.Course{CanvasCourseID: 101, Name: strPtr("数据结构")}
	if _, err := repo.Course.GetByCanvasID(context.Background(), 101); err != nil {
		if err := repo.Course.Create(context.Background(), course); err != nil {
			t.Fatalf("预置课程失败: %v", err)
		}
	}
	a := &model.Assignment{
		CanvasAssignmentID: canvasID,
		CourseID:           1,
		Name:               strPtr(name),
		DueAt:              timePtr(dueAt),
		HTMLURL:            strPtr("https://canvas.example.edu/assignments/1"),
	}
	if err := repo.Assignment.Create(context.Background(), a); err != nil {
		t.Fatalf("预置作业失败: %v", err)
	}
}

func listByType(t *testing.T, repo *repository.Repository, kind model.NotificationType) []model.NotificationLog {
	t.Helper()
	logs, err := repo.Notification.ListByUser(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("查询通知失败: %v", err)
	}
	var result []model.NotificationLog
	for _, l := range logs {
		if l.NotificationType == kind {
			result = append(result, l)
		}
	}
	return result
}

// ── 24 小时提醒 ──

func TestNotifierService_Sweep_24hCreates(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	seedAssignment(t, repo, 1001, "实验一", now.Add(10*time.Hour))

	created, err := svc.RunDeadlineSweep(context.Background(), 1)
	if err != nil {
		t.Fatalf("扫描应成功: %v", err)
	}
	if created != 1 {
		t.Fatalf("期望新建 1 条提醒，实际=%d", created)
	}

	logs := listByType(t, repo, model.Notification24hDeadline)
	if len(logs) != 1 {
		t.Fatalf("期望 1 条 24h 提醒，实际=%d", len(logs))
	}
	if logs[0].AssignmentCanvasID == nil || *logs[0].AssignmentCanvasID != 1001 {
		t.Error("提醒应绑定作业外部 ID")
	}

	// 24 小时内的提醒均为高紧急度
	var extra notificationExtra
	if err := json.Unmarshal(logs[0].ExtraData, &extra); err != nil {
		t.Fatalf("附加数据应为合法 JSON: %v", err)
	}
	if extra.Urgency != "high" {
		t.Errorf("期望 urgency=high，实际=%s", extra.Urgency)
	}
	if extra.CourseName != "数据结构" {
		t.Errorf("附加数据应携带课程名，实际=%s", extra.CourseName)
	}
}

func TestNotifierService_Sweep_SecondSweepSuppressed(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	seedAssignment(t, repo, 1001, "实验一", now.Add(10*time.Hour))

	if _, err := svc.RunDeadlineSweep(context.Background(), 1); err != nil {
		t.Fatalf("首次扫描应成功: %v", err)
	}
	created, err := svc.RunDeadlineSweep(context.Background(), 1)
	if err != nil {
		t.Fatalf("二次扫描应成功: %v", err)
	}
	if created != 0 {
		t.Errorf("12 小时抑制窗口内不应重复提醒，实际新建=%d", created)
	}
}

func TestNotifierService_Sweep_SuppressionExpires(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	seedAssignment(t, repo, 1001, "实验一", now.Add(20*time.Hour))

	if _, err := svc.RunDeadlineSweep(context.Background(), 1); err != nil {
		t.Fatalf("首次扫描应成功: %v", err)
	}

	// 13 小时后：抑制窗口已过，作业仍在 24h 窗口内
	svc.now = func() time.Time { return now.Add(13 * time.Hour) }
	created, err := svc.RunDeadlineSweep(context.Background(), 1)
	if err != nil {
		t.Fatalf("二次扫描应成功: %v", err)
	}
	if created != 1 {
		t.Errorf("抑制窗口过期后应重新提醒，实际新建=%d", created)
	}
	if logs := listByType(t, repo, model.Notification24hDeadline); len(logs) != 2 {
		t.Errorf("期望累计 2 条 24h 提醒，实际=%d", len(logs))
	}
}

// ── 3 天提醒 ──

func TestNotifierService_Sweep_3dFiresAtExactThreeDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	seedAssignment(t, repo, 2001, "期中项目", now.Add(72*time.Hour))

	created, err := svc.RunDeadlineSweep(context.Background(), 1)
	if err != nil {
		t.Fatalf("扫描应成功: %v", err)
	}
	if created != 1 {
		t.Fatalf("距截止恰 3 天应触发提醒，实际新建=%d", created)
	}
	if logs := listByType(t, repo, model.Notification3dDeadline); len(logs) != 1 {
		t.Errorf("期望 1 条 3d 提醒，实际=%d", len(logs))
	}
	if logs := listByType(t, repo, model.Notification24hDeadline); len(logs) != 0 {
		t.Errorf("72 小时后截止不应触发 24h 提醒，实际=%d", len(logs))
	}
}

func TestNotifierService_Sweep_3dNotFiredOutsideDayThree(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	// 距截止 2.5 天：整天数为 2，不触发 3d 提醒
	seedAssignment(t, repo, 2001, "期中项目", now.Add(60*time.Hour))

	if _, err := svc.RunDeadlineSweep(context.Background(), 1); err != nil {
		t.Fatalf("扫描应成功: %v", err)
	}
	if logs := listByType(t, repo, model.Notification3dDeadline); len(logs) != 0 {
		t.Errorf("整天数不为 3 时不应触发 3d 提醒，实际=%d", len(logs))
	}
}

func TestNotifierService_Sweep_ClassesIndependent(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	seedAssignment(t, repo, 3001, "课程论文", now.Add(20*time.Hour))

	// 预置一条同作业的 3d 提醒：不应抑制 24h 类别
	canvasID := int64(3001)
	existing := &model.NotificationLog{
		UserID:             1,
		NotificationType:   model.Notification3dDeadline,
		Title:              "作业将在 3 天后截止",
		Message:            "占位",
		SentAt:             now.Add(-time.Hour),
		AssignmentCanvasID: &canvasID,
	}
	if err := repo.Notification.Create(context.Background(), existing); err != nil {
		t.Fatalf("预置提醒失败: %v", err)
	}

	created, err := svc.RunDeadlineSweep(context.Background(), 1)
	if err != nil {
		t.Fatalf("扫描应成功: %v", err)
	}
	if created != 1 {
		t.Errorf("不同类别的历史提醒不应互相抑制，实际新建=%d", created)
	}
	if logs := listByType(t, repo, model.Notification24hDeadline); len(logs) != 1 {
		t.Errorf("期望 1 条 24h 提醒，实际=%d", len(logs))
	}
}

// ── 已读标记 ──

func TestNotifierService_MarkRead(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, repo := setupTestNotifierService(now)
	seedAssignment(t, repo, 1001, "实验一", now.Add(10*time.Hour))

	if _, err := svc.RunDeadlineSweep(context.Background(), 1); err != nil {
		t.Fatalf("扫描应成功: %v", err)
	}
	logs, _ := repo.Notification.ListByUser(context.Background(), 1, 10)
	if len(logs) == 0 {
		t.Fatal("应有待标记的通知")
	}

	if err := svc.MarkRead(context.Background(), logs[0].ID); err != nil {
		t.Fatalf("标记已读应成功: %v", err)
	}
	after, _ := svc.ListNotifications(context.Background(), 1, 10)
	if len(after) == 0 || !after[0].IsRead {
		t.Error("通知应已标记为已读")
	}

	if err := svc.MarkRead(context.Background(), 9999); err == nil {
		t.Error("标记不存在的通知应返回错误")
	}
}
