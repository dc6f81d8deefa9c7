package dto

// DeadlineItem 即将截止的作业
type DeadlineItem struct {
	AssignmentID    int64    `json:"assignment_id"`
	Name            string   `json:"name"`
	CourseName      string   `json:"course_name"`
	DueAt           string   `json:"due_at"`
	DaysUntilDue    int      `json:"days_until_due"`
	Urgency         string   `json:"urgency"` // high | medium | low
	PointsPossible  *float64 `json:"points_possible,omitempty"`
	HTMLURL         string   `json:"html_url,omitempty"`
	SubmissionTypes []string `json:"submission_types"`
}

// OverdueItem 已逾期的作业
type OverdueItem struct {
	AssignmentID   int64    `json:"assignment_id"`
	Name           string   `json:"name"`
	CourseName     string   `json:"course_name"`
	DueAt          string   `json:"due_at"`
	DaysOverdue    int      `json:"days_overdue"`
	PointsPossible *float64 `json:"points_possible,omitempty"`
	HTMLURL        string   `json:"html_url,omitempty"`
}

// WorkloadAssignment 工作量分析中的作业摘要
type WorkloadAssignment struct {
	Name   string   `json:"name"`
	DueAt  string   `json:"due_at"`
	Points *float64 `json:"points,omitempty"`
}

// CourseWorkload 单门课程的工作量分析
type CourseWorkload struct {
	CourseID            int64                `json:"course_id"`
	CourseName          string               `json:"course_name"`
	AssignmentCount     int                  `json:"assignment_count"`
	TotalPoints         float64              `json:"total_points"`
	AvgDaysUntilDue     float64              `json:"avg_days_until_due"`
	Intensity           string               `json:"intensity"` // high | medium | low
	UpcomingAssignments []WorkloadAssignment `json:"upcoming_assignments"`
}
