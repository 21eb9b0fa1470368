package repository

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
)

type BusinessUnitRepository interface {
	GetBusinessUnitByID(ctx context.Context, id int64) (*entity.BusinessUnit, error)
	// GetActiveBusinessUnitByName 仅返回 active 状态的业务单元
	GetActiveBusinessUnitByName(ctx context.Context, name string) (*entity.BusinessUnit, error)
}
