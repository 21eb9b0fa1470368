package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ClientPulse/internal/modules/notification/application/dto/respond"
	"ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/notification/domain/repository"
	"ClientPulse/internal/modules/notification/infrastructure/cache"
	"ClientPulse/pkg/util"
	"ClientPulse/pkg/ws"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

// EmailRequest 一次邮件发送意图
type EmailRequest struct {
	Recipients []entity.Recipient
	Template   string
	// Category 对应用户邮件偏好开关
	Category string
	Data     map[string]interface{}
	DedupKey string
}

// emailEnvelope 写入 outbox 并投递到 Kafka 的消息体
type emailEnvelope struct {
	Template   string                 `json:"template"`
	Category   string                 `json:"category"`
	Recipients []entity.Recipient     `json:"recipients"`
	Data       map[string]interface{} `json:"data,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Notifier 站内通知 + 邮件
type Notifier interface {
	// Notify 持久化站内通知，并尽力推送到在线连接
	Notify(ctx context.Context, notif *entity.Notification) error
	// SendEmail 按偏好过滤收件人后写入邮件 outbox；过滤后为空返回 false
	SendEmail(ctx context.Context, req EmailRequest) (bool, error)
}

type notifierImpl struct {
	notifRepo  repository.NotificationRepository
	prefRepo   repository.PreferenceRepository
	outboxRepo repository.EmailOutboxRepository
	hub        *ws.Hub
	counter    *cache.UnreadCounter
	now        func() time.Time
}

func NewNotifier(notifRepo repository.NotificationRepository, prefRepo repository.PreferenceRepository, outboxRepo repository.EmailOutboxRepository, hub *ws.Hub, counter *cache.UnreadCounter) Notifier {
	return &notifierImpl{
		notifRepo:  notifRepo,
		prefRepo:   prefRepo,
		outboxRepo: outboxRepo,
		hub:        hub,
		counter:    counter,
		now:        time.Now,
	}
}

func (n *notifierImpl) Notify(ctx context.Context, notif *entity.Notification) error {
	if notif == nil {
		return errors.New("notification is nil")
	}
	if notif.UserId <= 0 {
		return errors.New("notification target user is empty")
	}
	if notif.NotificationId == "" {
		notif.NotificationId = util.GenerateUUID()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = n.now()
	}
	if err := n.notifRepo.CreateNotification(ctx, notif); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	// 以下为尽力而为：推送或计数失败不影响通知已落库
	if n.hub != nil {
		if _, err := n.hub.SendJSON(notif.UserId, map[string]interface{}{
			"type":    "notification",
			"payload": ToNotificationItem(notif),
		}); err != nil {
			zlog.Warn("notification push failed", zap.Int64("user_id", notif.UserId), zap.Error(err))
		}
	}
	if err := n.counter.Incr(ctx, notif.UserId); err != nil {
		zlog.Warn("notification unread counter incr failed", zap.Int64("user_id", notif.UserId), zap.Error(err))
	}
	return nil
}

func (n *notifierImpl) SendEmail(ctx context.Context, req EmailRequest) (bool, error) {
	if strings.TrimSpace(req.Template) == "" {
		return false, errors.New("email template is empty")
	}
	recipients, err := n.filterRecipients(ctx, req.Category, req.Recipients)
	if err != nil {
		return false, fmt.Errorf("load email preferences: %w", err)
	}
	if len(recipients) == 0 {
		zlog.Debug("email skipped, no recipients after preference filter",
			zap.String("template", req.Template),
			zap.String("category", req.Category))
		return false, nil
	}

	now := n.now()
	body, err := json.Marshal(emailEnvelope{
		Template:   req.Template,
		Category:   req.Category,
		Recipients: recipients,
		Data:       req.Data,
		CreatedAt:  now,
	})
	if err != nil {
		return false, err
	}
	rcpt, err := json.Marshal(recipients)
	if err != nil {
		return false, err
	}

	dedupKey := strings.TrimSpace(req.DedupKey)
	if dedupKey == "" {
		dedupKey = req.Template + ":" + util.GenerateUUID()
	}
	ev := &entity.EmailOutbox{
		DedupKey:       dedupKey,
		Template:       req.Template,
		Category:       req.Category,
		RecipientsJson: string(rcpt),
		PayloadJson:    string(body),
		PublishStatus:  entity.PublishStatusPending,
		CreatedAt:      now,
	}
	if err := n.outboxRepo.Create(ctx, ev); err != nil {
		return false, fmt.Errorf("enqueue email: %w", err)
	}
	zlog.Info("email queued",
		zap.String("template", req.Template),
		zap.Int("recipients", len(recipients)),
		zap.String("dedup_key", dedupKey))
	return true, nil
}

// filterRecipients 去重并逐个检查邮件偏好
func (n *notifierImpl) filterRecipients(ctx context.Context, category string, in []entity.Recipient) ([]entity.Recipient, error) {
	candidates := make([]entity.Recipient, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	ids := make([]int64, 0, len(in))
	for _, r := range in {
		if r.UserId <= 0 || strings.TrimSpace(r.Email) == "" {
			continue
		}
		if _, ok := seen[r.UserId]; ok {
			continue
		}
		seen[r.UserId] = struct{}{}
		candidates = append(candidates, r)
		ids = append(ids, r.UserId)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	prefs, err := n.prefRepo.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Recipient, 0, len(candidates))
	for _, r := range candidates {
		if pref, ok := prefs[r.UserId]; ok && !pref.Allows(category) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func ToNotificationItem(n *entity.Notification) respond.NotificationItem {
	return respond.NotificationItem{
		NotificationId: n.NotificationId,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		RelatedTo:      n.RelatedTo,
		RelatedId:      n.RelatedId,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
}
