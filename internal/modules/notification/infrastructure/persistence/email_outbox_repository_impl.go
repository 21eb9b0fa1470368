package persistence

import (
	"context"
	"strings"
	"time"

	"ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// publishing 状态超过该时长视为 relay 崩溃遗留，允许重新认领
const staleClaimAfter = 5 * time.Minute

type emailOutboxRepositoryImpl struct {
	db *gorm.DB
}

func NewEmailOutboxRepository(db *gorm.DB) repository.EmailOutboxRepository {
	return &emailOutboxRepositoryImpl{db: db}
}

func (r *emailOutboxRepositoryImpl) Create(ctx context.Context, ev *entity.EmailOutbox) error {
	if ev == nil {
		return nil
	}
	now := time.Now()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *emailOutboxRepositoryImpl) ClaimForPublish(ctx context.Context, now time.Time, limit int) ([]entity.EmailOutbox, error) {
	if limit <= 0 {
		limit = 100
	}

	var out []entity.EmailOutbox
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []entity.EmailOutbox
		q := tx.Model(&entity.EmailOutbox{}).
			Where("((publish_status = ? OR publish_status = ?) OR (publish_status = ? AND updated_at < ?))",
				entity.PublishStatusPending, entity.PublishStatusFailed,
				entity.PublishStatusPublishing, now.Add(-staleClaimAfter)).
			Where("(next_retry_at IS NULL OR next_retry_at <= ?)", now).
			Order("id ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			out = []entity.EmailOutbox{}
			return nil
		}

		ids := make([]int64, 0, len(events))
		for i := range events {
			ids = append(ids, events[i].Id)
		}
		if err := tx.Model(&entity.EmailOutbox{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"publish_status": entity.PublishStatusPublishing, "updated_at": now}).Error; err != nil {
			return err
		}

		out = events
		return nil
	})
	return out, err
}

func (r *emailOutboxRepositoryImpl) MarkPublished(ctx context.Context, id int64, topic string, partition int, offset int64, publishedAt time.Time) error {
	updates := map[string]any{
		"publish_status":  entity.PublishStatusPublished,
		"kafka_topic":     strings.TrimSpace(topic),
		"kafka_partition": partition,
		"kafka_offset":    offset,
		"published_at":    publishedAt,
		"last_error":      "",
		"updated_at":      time.Now(),
	}
	return r.db.WithContext(ctx).Model(&entity.EmailOutbox{}).Where("id = ?", id).Updates(updates).Error
}

func (r *emailOutboxRepositoryImpl) MarkPublishFailed(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error {
	errMsg = strings.TrimSpace(errMsg)
	if len(errMsg) > 255 {
		errMsg = errMsg[:255]
	}
	updates := map[string]any{
		"publish_status": entity.PublishStatusFailed,
		"retry_count":    gorm.Expr("retry_count + 1"),
		"next_retry_at":  nextRetryAt,
		"last_error":     errMsg,
		"updated_at":     time.Now(),
	}
	return r.db.WithContext(ctx).Model(&entity.EmailOutbox{}).Where("id = ?", id).Updates(updates).Error
}
