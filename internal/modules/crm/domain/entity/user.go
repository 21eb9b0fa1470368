package entity

import "time"

// 用户角色
const (
	RoleAdmin            = "admin"
	RoleSales            = "sales"
	RoleBUHead           = "bu_head"
	RoleSeniorManagement = "senior_management"
)

// User CRM 用户（工作流引擎只读）
type User struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Name      string    `gorm:"column:name;type:varchar(100)"`
	Role      string    `gorm:"column:role;type:varchar(30);index;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "crm_user"
}

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSales, RoleBUHead, RoleSeniorManagement:
		return true
	}
	return false
}
