package entity

import "time"

// 邮件偏好类别
const (
	CategoryTaskAssignments = "task_assignments"
	CategoryTaskOverdue     = "task_overdue"
	CategoryTaskEscalations = "task_escalations"
	CategoryOpportunityWon  = "opportunity_won"
	CategoryDigest          = "digest"
)

// NotificationPreference 用户邮件偏好；无记录时全部视为开启
type NotificationPreference struct {
	UserId          int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	TaskAssignments bool      `gorm:"column:task_assignments;not null"`
	TaskOverdue     bool      `gorm:"column:task_overdue;not null"`
	TaskEscalations bool      `gorm:"column:task_escalations;not null"`
	OpportunityWon  bool      `gorm:"column:opportunity_won;not null"`
	Digest          bool      `gorm:"column:digest;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (NotificationPreference) TableName() string {
	return "notification_preference"
}

func DefaultPreference(userID int64) *NotificationPreference {
	return &NotificationPreference{
		UserId:          userID,
		TaskAssignments: true,
		TaskOverdue:     true,
		TaskEscalations: true,
		OpportunityWon:  true,
		Digest:          true,
	}
}

// Allows 判断某类邮件是否允许发送；未知类别默认放行
func (p *NotificationPreference) Allows(category string) bool {
	if p == nil {
		return true
	}
	switch category {
	case CategoryTaskAssignments:
		return p.TaskAssignments
	case CategoryTaskOverdue:
		return p.TaskOverdue
	case CategoryTaskEscalations:
		return p.TaskEscalations
	case CategoryOpportunityWon:
		return p.OpportunityWon
	case CategoryDigest:
		return p.Digest
	}
	return true
}
