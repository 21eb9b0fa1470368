package entity

import "time"

// 任务状态；completed 为终态，不再参与逾期判定
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

type Task struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name;type:varchar(200);not null"`
	OpportunityId  int64     `gorm:"column:opportunity_id;index"`
	AssignedUserId int64     `gorm:"column:assigned_user_id;index"`
	DueAt          time.Time `gorm:"column:due_at;index;not null"`
	Status         string    `gorm:"column:status;type:varchar(20);index;not null;default:pending"`
	Description    string    `gorm:"column:description;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (Task) TableName() string {
	return "task"
}

// OverdueTaskView 逾期任务读模型：任务 + 负责人 + 所属业务单元
type OverdueTaskView struct {
	Task
	AssigneeEmail    string `gorm:"column:assignee_email"`
	AssigneeName     string `gorm:"column:assignee_name"`
	BusinessUnitName string `gorm:"column:business_unit_name"`
}

// HoursOverdue 向下取整的逾期小时数
func (v *OverdueTaskView) HoursOverdue(now time.Time) int64 {
	if v == nil || !now.After(v.DueAt) {
		return 0
	}
	return int64(now.Sub(v.DueAt) / time.Hour)
}
