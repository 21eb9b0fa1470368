package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"ClientPulse/internal/modules/notification/domain/repository"
	"ClientPulse/internal/modules/notification/infrastructure/mq"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

const maxRetryDelay = 5 * time.Minute

// EmailOutboxRelay 将 email_outbox 中待发送记录投递到 Kafka，下游邮件服务负责渲染与 SMTP
type EmailOutboxRelay struct {
	repo         repository.EmailOutboxRepository
	pub          mq.Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	now          func() time.Time
}

func NewEmailOutboxRelay(repo repository.EmailOutboxRepository, pub mq.Publisher, topic string, batchSize int, pollInterval time.Duration) *EmailOutboxRelay {
	if batchSize <= 0 {
		batchSize = 200
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &EmailOutboxRelay{
		repo:         repo,
		pub:          pub,
		topic:        strings.TrimSpace(topic),
		batchSize:    batchSize,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

func (r *EmailOutboxRelay) Run(ctx context.Context) error {
	if r.repo == nil {
		return errors.New("email outbox repo is nil")
	}
	if r.pub == nil {
		return errors.New("publisher is nil")
	}

	backoff := r.pollInterval
	for {
		n, err := r.RunOnce(ctx)
		wait := r.pollInterval
		if err != nil {
			wait = backoff
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		} else {
			backoff = r.pollInterval
			if n > 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunOnce 认领一批记录并逐条发布，返回成功发布数
func (r *EmailOutboxRelay) RunOnce(ctx context.Context) (int, error) {
	now := r.now()
	events, err := r.repo.ClaimForPublish(ctx, now, r.batchSize)
	if err != nil {
		zlog.Warn("email outbox relay claim failed", zap.Error(err))
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := 0
	for i := range events {
		ev := events[i]
		if r.topic == "" {
			_ = r.repo.MarkPublishFailed(ctx, ev.Id, now.Add(maxRetryDelay), "kafka topic is empty")
			continue
		}

		key := []byte(ev.DedupKey)
		if len(key) == 0 {
			key = []byte(strconv.FormatInt(ev.Id, 10))
		}

		res, pubErr := r.pub.Publish(ctx, mq.Message{
			Topic: r.topic,
			Key:   key,
			Value: []byte(ev.PayloadJson),
			Headers: map[string]string{
				"template":  ev.Template,
				"category":  ev.Category,
				"dedup_key": ev.DedupKey,
			},
		})
		if pubErr != nil {
			zlog.Warn("email outbox relay publish failed",
				zap.Int64("id", ev.Id),
				zap.Int("retry_count", ev.RetryCount),
				zap.Error(pubErr))
			_ = r.repo.MarkPublishFailed(ctx, ev.Id, computeNextRetry(now, ev.RetryCount), pubErr.Error())
			continue
		}

		if err := r.repo.MarkPublished(ctx, ev.Id, r.topic, int(res.Partition), res.Offset, r.now()); err != nil {
			zlog.Warn("email outbox relay mark published failed", zap.Int64("id", ev.Id), zap.Error(err))
			continue
		}
		published++
	}

	return published, nil
}

func computeNextRetry(now time.Time, retryCount int) time.Time {
	if retryCount < 0 {
		retryCount = 0
	}
	d := 500 * time.Millisecond
	for i := 0; i < retryCount && d < maxRetryDelay; i++ {
		d *= 2
	}
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return now.Add(d)
}
