package persistence

import (
	"context"

	"ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
)

type notificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepositoryImpl{db: db}
}

func (r *notificationRepositoryImpl) CreateNotification(ctx context.Context, notif *entity.Notification) error {
	return r.db.WithContext(ctx).Create(notif).Error
}

func (r *notificationRepositoryImpl) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]entity.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var notifs []entity.Notification
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&notifs).Error
	return notifs, err
}

func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}
