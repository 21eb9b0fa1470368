package respond

import (
	"fmt"
	"time"
)

const (
	ProcessorOverdueTasks     = "overdue_tasks"
	ProcessorWonOpportunities = "won_opportunities"
)

// EntityError 单个实体在本轮处理中失败的记录，下一轮会自然重试
type EntityError struct {
	Entity   string `json:"entity"`
	EntityId int64  `json:"entity_id"`
	Step     string `json:"step"`
	Message  string `json:"message"`
}

func (e EntityError) Error() string {
	return fmt.Sprintf("%s %d: %s: %s", e.Entity, e.EntityId, e.Step, e.Message)
}

type ProcessResult struct {
	Processor            string        `json:"processor"`
	Scanned              int           `json:"scanned"`
	NotificationsCreated int           `json:"notifications_created"`
	EmailsQueued         int           `json:"emails_queued"`
	Escalations          int           `json:"escalations"`
	Propagated           int           `json:"propagated"`
	Skipped              int           `json:"skipped"`
	Errors               []EntityError `json:"errors,omitempty"`
	StartedAt            time.Time     `json:"started_at"`
	FinishedAt           time.Time     `json:"finished_at"`
}

func NewProcessResult(processor string, startedAt time.Time) *ProcessResult {
	return &ProcessResult{Processor: processor, StartedAt: startedAt}
}

func (r *ProcessResult) AddError(entity string, id int64, step string, err error) {
	r.Errors = append(r.Errors, EntityError{Entity: entity, EntityId: id, Step: step, Message: err.Error()})
}

// RunResult 一次 RunWorkflows 的汇总；Failures 记录整体失败的处理器（查询失败或 panic）
type RunResult struct {
	Trigger    string         `json:"trigger,omitempty"`
	Overdue    *ProcessResult `json:"overdue"`
	Won        *ProcessResult `json:"won"`
	Failures   []string       `json:"failures,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

func (r *RunResult) Duration() time.Duration {
	if r == nil || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *RunResult) ErrorCount() int {
	if r == nil {
		return 0
	}
	n := len(r.Failures)
	for _, p := range []*ProcessResult{r.Overdue, r.Won} {
		if p != nil {
			n += len(p.Errors)
		}
	}
	return n
}
