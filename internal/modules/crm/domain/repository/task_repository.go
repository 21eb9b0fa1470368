package repository

import (
	"context"
	"time"

	"ClientPulse/internal/modules/crm/domain/entity"
)

type TaskRepository interface {
	// ListOverdueTasks 查询 status != completed 且 due_at < now 的任务，附带负责人与业务单元信息
	ListOverdueTasks(ctx context.Context, now time.Time) ([]entity.OverdueTaskView, error)
}
