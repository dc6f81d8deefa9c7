package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/internal/model"
	"github.com/canvas-ai-labs/canvas-core-backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoAssignments = errors.New("窗口内没有可导出的作业")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 截止清单导出为 Excel (.xlsx)，日历导出为 iCalendar (.ics)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportDeadlinesXLSX 导出未来 days 天内的作业截止清单
	ExportDeadlinesXLSX(ctx context.Context, days int) (*bytes.Buffer, string, error)
	// ExportCalendarICS 导出未来 days 天内的作业截止日历
	ExportCalendarICS(ctx context.Context, days int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// dueWindow 查询窗口内的作业及其课程名称索引
func (s *exportService) dueWindow(ctx context.Context, days int) ([]model.Assignment, map[uint]string, error) {
	if days <= 0 {
		days = 30
	}
	now := s.now()
	assignments, err := s.repo.Assignment.ListDueBetween(ctx, now, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		s.logger.Error("查询待导出作业失败", zap.Error(err))
		return nil, nil, err
	}
	if len(assignments) == 0 {
		return nil, nil, ErrExportNoAssignments
	}

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
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, nil, err
	}
	names := make(map[uint]string, len(courses))
	for _, c := range courses {
		if c.Name != nil {
			names[c.ID] = *c.Name
		}
	}
	return assignments, names, nil
}

// ═══════════════════════════════════════════════════════════
// ExportDeadlinesXLSX — 导出截止清单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "截止清单"，按截止时间升序
//   - 列：课程 | 作业 | 截止时间 | 剩余天数 | 分值 | 提交方式
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportDeadlinesXLSX(ctx context.Context, days int) (*bytes.Buffer, string, error) {
	assignments, courseNames, err := s.dueWindow(ctx, days)
	if err != nil {
		return nil, "", err
	}
	now := s.now()

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "截止清单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "B", 36)
	f.SetColWidth(sheetName, "C", "C", 20)
	f.SetColWidth(sheetName, "D", "D", 10)
	f.SetColWidth(sheetName, "E", "E", 8)
	f.SetColWidth(sheetName, "F", "F", 24)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"课程", "作业", "截止时间", "剩余天数", "分值", "提交方式"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, col+"1", h)
		f.SetCellStyle(sheetName, col+"1", col+"1", headerStyle)
	}

	for i, a := range assignments {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), courseNames[a.CourseID])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), strOrDefault(a.Name, "未命名作业"))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), a.DueAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), int(a.DueAt.Sub(now).Hours())/24)
		if a.PointsPossible != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), *a.PointsPossible)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), strings.Join(a.SubmissionTypeList(), ", "))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("canvas_deadlines_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendarICS — 导出截止日历为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个作业生成一个 VEVENT：DTSTART 为截止时间，UID 绑定外部作业 ID，
// 重复导出产生相同 UID，日历客户端按 UID 去重

func (s *exportService) ExportCalendarICS(ctx context.Context, days int) (*bytes.Buffer, string, error) {
	assignments, courseNames, err := s.dueWindow(ctx, days)
	if err != nil {
		return nil, "", err
	}
	now := s.now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//canvas-core//deadline-calendar//CN")

	for _, a := range assignments {
		event := cal.AddEvent(fmt.Sprintf("assignment-%d@canvas-core", a.CanvasAssignmentID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(*a.DueAt)
		event.SetEndAt(a.DueAt.Add(30 * time.Minute))

		summary := strOrDefault(a.Name, "未命名作业")
		if courseName := courseNames[a.CourseID]; courseName != "" {
			summary = fmt.Sprintf("[%s] %s", courseName, summary)
		}
		event.SetSummary(summary)

		var descParts []string
		if a.PointsPossible != nil {
			descParts = append(descParts, fmt.Sprintf("分值: %.1f", *a.PointsPossible))
		}
		if types := a.SubmissionTypeList(); len(types) > 0 {
			descParts = append(descParts, "提交方式: "+strings.Join(types, ", "))
		}
		if len(descParts) > 0 {
			event.SetDescription(strings.Join(descParts, "\n"))
		}
		if a.HTMLURL != nil {
			event.SetURL(*a.HTMLURL)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("canvas_deadlines_%s.ics", now.Format("20060102"))
	return buf, filename, nil
}
