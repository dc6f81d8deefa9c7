package dto

// TriggerResponse 手动触发响应
// 触发即返回，不等待底层同步完成（fire-and-forget）
type TriggerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
