package repository

import (
	"context"

	"ClientPulse/internal/modules/notification/domain/entity"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notif *entity.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]entity.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
}
