package persistence

import (
	"context"
	"time"

	"ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type preferenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) repository.PreferenceRepository {
	return &preferenceRepositoryImpl{db: db}
}

func (r *preferenceRepositoryImpl) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*entity.NotificationPreference, error) {
	out := make(map[int64]*entity.NotificationPreference, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var prefs []entity.NotificationPreference
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&prefs).Error; err != nil {
		return nil, err
	}
	for i := range prefs {
		p := prefs[i]
		out[p.UserId] = &p
	}
	return out, nil
}

func (r *preferenceRepositoryImpl) Upsert(ctx context.Context, pref *entity.NotificationPreference) error {
	if pref == nil {
		return nil
	}
	pref.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"task_assignments", "task_overdue", "task_escalations", "opportunity_won", "digest", "updated_at",
			}),
		}).
		Create(pref).Error
}
