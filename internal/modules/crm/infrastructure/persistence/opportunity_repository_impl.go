package persistence

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
)

type opportunityRepositoryImpl struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) repository.OpportunityRepository {
	return &opportunityRepositoryImpl{db: db}
}

func (r *opportunityRepositoryImpl) ListWonOpportunities(ctx context.Context) ([]entity.Opportunity, error) {
	var opps []entity.Opportunity
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.OpportunityStatusWon).
		Order("id ASC").
		Find(&opps).Error
	return opps, err
}
