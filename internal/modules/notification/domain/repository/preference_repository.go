package repository

import (
	"context"

	"ClientPulse/internal/modules/notification/domain/entity"
)

type PreferenceRepository interface {
	// GetByUserIDs 批量读取偏好，缺失的用户不出现在结果中
	GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*entity.NotificationPreference, error)
	Upsert(ctx context.Context, pref *entity.NotificationPreference) error
}
