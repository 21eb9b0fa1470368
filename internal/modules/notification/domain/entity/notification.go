package entity

import "time"

// 通知类型
const (
	TypeTaskOverdue    = "task_overdue"
	TypeTaskEscalation = "task_escalation"
	TypeOpportunityWon = "opportunity_won"
)

// 关联实体类型
const (
	RelatedToTask        = "task"
	RelatedToOpportunity = "opportunity"
)

// Notification 站内通知
type Notification struct {
	Id             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	NotificationId string     `gorm:"column:notification_id;type:char(36);uniqueIndex;not null"`
	UserId         int64      `gorm:"column:user_id;index:idx_notification_user_read,priority:1;not null"`
	Type           string     `gorm:"column:type;type:varchar(30);not null"`
	Title          string     `gorm:"column:title;type:varchar(200)"`
	Message        string     `gorm:"column:message;type:text"`
	RelatedTo      string     `gorm:"column:related_to;type:varchar(30);index:idx_notification_related,priority:1"`
	RelatedId      int64      `gorm:"column:related_id;index:idx_notification_related,priority:2"`
	IsRead         bool       `gorm:"column:is_read;index:idx_notification_user_read,priority:2;not null;default:false"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
}

func (Notification) TableName() string {
	return "notification"
}
