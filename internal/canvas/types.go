package canvas

import (
	"context"
	"time"
)

// Provider Canvas 数据源抽象
// 指针字段表示远端可缺省的值：nil = 远端未提供（coalesce-on-missing 的判定依据）
type Provider interface {
	// CurrentUser 获取当前令牌对应的用户身份
	CurrentUser(ctx context.Context) (*RemoteUser, error)
	// ListActiveCourses 获取当前用户 active 选课且 available 状态的课程列表
	ListActiveCourses(ctx context.Context) ([]RemoteCourse, error)
	// ListAssignments 获取指定课程的作业列表
	ListAssignments(ctx context.Context, courseID int64) ([]RemoteAssignment, error)
}

// RemoteUser Canvas 用户
type RemoteUser struct {
	ID    int64
	Name  *string
	Email *string
}

// RemoteCourse Canvas 课程
type RemoteCourse struct {
	ID            int64
	Name          *string
	CourseCode    *string
	WorkflowState *string
	SyllabusBody  *string
}

// RemoteAssignment Canvas 作业
// DueAt 由 ISO-8601 文本解析而来；缺失或无法解析时为 nil
type RemoteAssignment struct {
	ID              int64
	Name            *string
	Description     *string
	DueAt           *time.Time
	HTMLURL         *string
	SubmissionTypes []string
	PointsPossible  *float64
	WorkflowState   *string
}
