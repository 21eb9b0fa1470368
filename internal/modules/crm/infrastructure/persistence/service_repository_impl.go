package persistence

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
)

type serviceRepositoryImpl struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) repository.ServiceRepository {
	return &serviceRepositoryImpl{db: db}
}

func (r *serviceRepositoryImpl) GetServiceByID(ctx context.Context, id int64) (*entity.Service, error) {
	var s entity.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}
