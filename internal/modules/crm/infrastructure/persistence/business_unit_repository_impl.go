package persistence

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
)

type businessUnitRepositoryImpl struct {
	db *gorm.DB
}

func NewBusinessUnitRepository(db *gorm.DB) repository.BusinessUnitRepository {
	return &businessUnitRepositoryImpl{db: db}
}

func (r *businessUnitRepositoryImpl) GetBusinessUnitByID(ctx context.Context, id int64) (*entity.BusinessUnit, error) {
	var bu entity.BusinessUnit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bu).Error; err != nil {
		return nil, translateErr(err)
	}
	return &bu, nil
}

func (r *businessUnitRepositoryImpl) GetActiveBusinessUnitByName(ctx context.Context, name string) (*entity.BusinessUnit, error) {
	var bu entity.BusinessUnit
	err := r.db.WithContext(ctx).
		Where("name = ? AND status = ?", name, entity.BusinessUnitStatusActive).
		First(&bu).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &bu, nil
}
