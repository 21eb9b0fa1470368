package repository

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
)

type ClientRepository interface {
	// GetClientByID 返回客户及其 ServicesUsed；不存在返回 ErrNotFound
	GetClientByID(ctx context.Context, id int64) (*entity.Client, error)
	// AddServiceToClient 原子的"不存在则追加"，added 表示本次是否真正写入
	AddServiceToClient(ctx context.Context, clientID int64, serviceID int64) (added bool, err error)
}
