package entity

import "time"

// 商机状态
const (
	OpportunityStatusNew         = "new"
	OpportunityStatusInProgress  = "in_progress"
	OpportunityStatusQualified   = "qualified"
	OpportunityStatusProposal    = "proposal"
	OpportunityStatusNegotiation = "negotiation"
	OpportunityStatusWon         = "won"
	OpportunityStatusLost        = "lost"
	OpportunityStatusOnHold      = "on_hold"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Opportunity struct {
	Id             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string     `gorm:"column:name;type:varchar(200);not null"`
	ClientId       int64      `gorm:"column:client_id;index;not null"`
	ServiceId      int64      `gorm:"column:service_id;index;not null"`
	AssignedUserId int64      `gorm:"column:assigned_user_id;index"`
	Status         string     `gorm:"column:status;type:varchar(20);index;not null;default:new"`
	Priority       string     `gorm:"column:priority;type:varchar(10);default:medium"`
	EstimatedValue float64    `gorm:"column:estimated_value;type:decimal(14,2)"`
	DueDate        *time.Time `gorm:"column:due_date"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (Opportunity) TableName() string {
	return "opportunity"
}
