package entity

import "time"

const (
	BusinessUnitStatusActive   = "active"
	BusinessUnitStatusInactive = "inactive"
)

type BusinessUnit struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(100);uniqueIndex;not null"`
	OwnerId   *int64    `gorm:"column:owner_id;index"`
	Status    string    `gorm:"column:status;type:varchar(20);not null;default:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (BusinessUnit) TableName() string {
	return "business_unit"
}
