package scheduler

import (
	"fmt"
	"time"
)

// Trigger 任务触发器：决定某任务的下一次触发时间
// 三种实现：每日定点（CronDaily）、固定间隔（Interval）、单次（OneShot）
type Trigger interface {
	// Next 返回严格晚于 after 的下一次触发时间（OneShot 到期后立即触发）
	Next(after time.Time) time.Time
	// Recurring 是否为循环触发
	Recurring() bool
	// Description 人类可读的触发描述
	Description() string
}

// CronDaily 每日固定钟点触发
type CronDaily struct {
	Hour   int
	Minute int
}

// Next 当天该钟点若已过则顺延到次日
func (t CronDaily) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), t.Hour, t.Minute, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Recurring 每日触发为循环触发
func (t CronDaily) Recurring() bool { return true }

// Description 触发描述
func (t CronDaily) Description() string {
	return fmt.Sprintf("每天 %02d:%02d 执行", t.Hour, t.Minute)
}

// Interval 固定间隔触发
type Interval struct {
	Every time.Duration
}

// Next 下一次触发 = after + 间隔
func (t Interval) Next(after time.Time) time.Time {
	return after.Add(t.Every)
}

// Recurring 间隔触发为循环触发
func (t Interval) Recurring() bool { return true }

// Description 触发描述
func (t Interval) Description() string {
	return fmt.Sprintf("每 %s 执行", t.Every)
}

// OneShot 未来单次触发
type OneShot struct {
	At time.Time
}

// Next 触发时间已过时立即触发
func (t OneShot) Next(after time.Time) time.Time {
	if t.At.After(after) {
		return t.At
	}
	return after
}

// Recurring 单次触发不循环
func (t OneShot) Recurring() bool { return false }

// Description 触发描述
func (t OneShot) Description() string {
	return fmt.Sprintf("于 %s 执行一次", t.At.Format(time.RFC3339))
}
