package service

import (
	"context"

	"ClientPulse/internal/modules/notification/application/dto/request"
	"ClientPulse/internal/modules/notification/application/dto/respond"
	"ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/notification/domain/repository"
	"ClientPulse/internal/modules/notification/infrastructure/cache"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

// InboxService 当前用户的站内通知查询与邮件偏好设置
type InboxService interface {
	ListNotifications(ctx context.Context, userID int64, req request.ListNotificationRequest) ([]respond.NotificationItem, error)
	UnreadCount(ctx context.Context, userID int64) (*respond.UnreadCountRespond, error)
	GetPreference(ctx context.Context, userID int64) (*respond.PreferenceRespond, error)
	UpdatePreference(ctx context.Context, userID int64, req request.UpdatePreferenceRequest) (*respond.PreferenceRespond, error)
}

type inboxServiceImpl struct {
	notifRepo repository.NotificationRepository
	prefRepo  repository.PreferenceRepository
	counter   *cache.UnreadCounter
}

func NewInboxService(notifRepo repository.NotificationRepository, prefRepo repository.PreferenceRepository, counter *cache.UnreadCounter) InboxService {
	return &inboxServiceImpl{notifRepo: notifRepo, prefRepo: prefRepo, counter: counter}
}

func (s *inboxServiceImpl) ListNotifications(ctx context.Context, userID int64, req request.ListNotificationRequest) ([]respond.NotificationItem, error) {
	notifs, err := s.notifRepo.ListByUser(ctx, userID, req.UnreadOnly, req.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]respond.NotificationItem, 0, len(notifs))
	for i := range notifs {
		items = append(items, ToNotificationItem(&notifs[i]))
	}
	return items, nil
}

func (s *inboxServiceImpl) UnreadCount(ctx context.Context, userID int64) (*respond.UnreadCountRespond, error) {
	if n, ok, err := s.counter.Get(ctx, userID); err == nil && ok {
		return &respond.UnreadCountRespond{Unread: n}, nil
	} else if err != nil {
		zlog.Warn("unread counter read failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	n, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.counter.Set(ctx, userID, n); err != nil {
		zlog.Warn("unread counter seed failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return &respond.UnreadCountRespond{Unread: n}, nil
}

func (s *inboxServiceImpl) GetPreference(ctx context.Context, userID int64) (*respond.PreferenceRespond, error) {
	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toPreferenceRespond(pref), nil
}

func (s *inboxServiceImpl) UpdatePreference(ctx context.Context, userID int64, req request.UpdatePreferenceRequest) (*respond.PreferenceRespond, error) {
	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&pref.TaskAssignments, req.TaskAssignments)
	apply(&pref.TaskOverdue, req.TaskOverdue)
	apply(&pref.TaskEscalations, req.TaskEscalations)
	apply(&pref.OpportunityWon, req.OpportunityWon)
	apply(&pref.Digest, req.Digest)

	if err := s.prefRepo.Upsert(ctx, pref); err != nil {
		return nil, err
	}
	zlog.Info("email preference updated", zap.Int64("user_id", userID))
	return toPreferenceRespond(pref), nil
}

// loadPreference 无记录时返回全开的默认偏好
func (s *inboxServiceImpl) loadPreference(ctx context.Context, userID int64) (*entity.NotificationPreference, error) {
	prefs, err := s.prefRepo.GetByUserIDs(ctx, []int64{userID})
	if err != nil {
		return nil, err
	}
	if p, ok := prefs[userID]; ok {
		return p, nil
	}
	return entity.DefaultPreference(userID), nil
}

func toPreferenceRespond(p *entity.NotificationPreference) *respond.PreferenceRespond {
	return &respond.PreferenceRespond{
		TaskAssignments: p.TaskAssignments,
		TaskOverdue:     p.TaskOverdue,
		TaskEscalations: p.TaskEscalations,
		OpportunityWon:  p.OpportunityWon,
		Digest:          p.Digest,
	}
}
