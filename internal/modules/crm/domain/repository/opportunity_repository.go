package repository

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
)

type OpportunityRepository interface {
	ListWonOpportunities(ctx context.Context) ([]entity.Opportunity, error)
}
