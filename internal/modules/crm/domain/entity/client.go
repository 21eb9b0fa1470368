package entity

import "time"

// Client 客户；ServicesUsed 由 client_service 关联表按写入顺序组装，天然去重
type Client struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name;type:varchar(200);not null"`
	Industry       string    `gorm:"column:industry;type:varchar(100)"`
	AccountOwnerId *int64    `gorm:"column:account_owner_id;index"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`

	ServicesUsed []int64 `gorm:"-"`
}

func (Client) TableName() string {
	return "client"
}

// HasService 判断客户是否已在使用某项服务
func (c *Client) HasService(serviceID int64) bool {
	if c == nil {
		return false
	}
	for _, id := range c.ServicesUsed {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ClientService 客户-服务关联，(client_id, service_id) 唯一
type ClientService struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ClientId  int64     `gorm:"column:client_id;not null;uniqueIndex:uk_client_service,priority:1"`
	ServiceId int64     `gorm:"column:service_id;not null;uniqueIndex:uk_client_service,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (ClientService) TableName() string {
	return "client_service"
}
