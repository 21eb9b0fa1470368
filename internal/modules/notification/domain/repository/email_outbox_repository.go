package repository

import (
	"context"
	"time"

	"ClientPulse/internal/modules/notification/domain/entity"
)

type EmailOutboxRepository interface {
	Create(ctx context.Context, ev *entity.EmailOutbox) error
	ClaimForPublish(ctx context.Context, now time.Time, limit int) ([]entity.EmailOutbox, error)
	MarkPublished(ctx context.Context, id int64, topic string, partition int, offset int64, publishedAt time.Time) error
	MarkPublishFailed(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error
}
