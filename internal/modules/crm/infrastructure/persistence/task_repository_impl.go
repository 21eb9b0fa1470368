package persistence

import (
	"context"
	"time"

	"ClientPulse/internal/modules/crm/domain/entity"
	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
)

type taskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) repository.TaskRepository {
	return &taskRepositoryImpl{db: db}
}

func (r *taskRepositoryImpl) ListOverdueTasks(ctx context.Context, now time.Time) ([]entity.OverdueTaskView, error) {
	var rows []entity.OverdueTaskView
	// task -> opportunity -> service -> business_unit 定位所属业务单元
	err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Select("task.*, " +
			"COALESCE(u.email, '') AS assignee_email, " +
			"COALESCE(u.name, '') AS assignee_name, " +
			"COALESCE(bu.name, '') AS business_unit_name").
		Joins("LEFT JOIN crm_user u ON u.id = task.assigned_user_id").
		Joins("LEFT JOIN opportunity o ON o.id = task.opportunity_id").
		Joins("LEFT JOIN service s ON s.id = o.service_id").
		Joins("LEFT JOIN business_unit bu ON bu.id = s.business_unit_id").
		Where("task.status <> ? AND task.due_at < ?", entity.TaskStatusCompleted, now).
		Order("task.due_at ASC, task.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
