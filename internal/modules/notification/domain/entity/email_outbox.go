package entity

import (
	"database/sql"
	"time"
)

// outbox 发布状态
const (
	PublishStatusPending    int8 = 0
	PublishStatusPublishing int8 = 1
	PublishStatusPublished  int8 = 2
	PublishStatusFailed     int8 = 3
)

// 邮件模板
const (
	TemplateTaskOverdue    = "task_overdue"
	TemplateTaskEscalation = "task_escalation"
	TemplateOpportunityWon = "opportunity_won"
)

// EmailOutbox 邮件发送意图，先落库再由 relay 投递到 Kafka
type EmailOutbox struct {
	Id             int64        `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey       string       `gorm:"column:dedup_key;type:varchar(160);not null;uniqueIndex:uniq_email_outbox_dedup"`
	Template       string       `gorm:"column:template;type:varchar(60);not null"`
	Category       string       `gorm:"column:category;type:varchar(40)"`
	RecipientsJson string       `gorm:"column:recipients_json;type:text"`
	PayloadJson    string       `gorm:"column:payload_json;type:text"`
	PublishStatus  int8         `gorm:"column:publish_status;type:tinyint;not null;default:0;index:idx_email_outbox_status"`
	RetryCount     int          `gorm:"column:retry_count;type:int;not null;default:0"`
	NextRetryAt    sql.NullTime `gorm:"column:next_retry_at;index:idx_email_outbox_next_retry"`
	LastError      string       `gorm:"column:last_error;type:varchar(255)"`
	KafkaTopic     string       `gorm:"column:kafka_topic;type:varchar(120)"`
	KafkaPartition int          `gorm:"column:kafka_partition"`
	KafkaOffset    int64        `gorm:"column:kafka_offset"`
	PublishedAt    sql.NullTime `gorm:"column:published_at"`
	CreatedAt      time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;not null"`
}

func (EmailOutbox) TableName() string {
	return "email_outbox"
}

// Recipient 邮件收件人
type Recipient struct {
	UserId int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}
