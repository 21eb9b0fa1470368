package entity

import "time"

type Service struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name;type:varchar(200);not null"`
	Description    string    `gorm:"column:description;type:text"`
	BusinessUnitId *int64    `gorm:"column:business_unit_id;index"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (Service) TableName() string {
	return "service"
}
