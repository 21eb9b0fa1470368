package repository

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
)

type ServiceRepository interface {
	GetServiceByID(ctx context.Context, id int64) (*entity.Service, error)
}
