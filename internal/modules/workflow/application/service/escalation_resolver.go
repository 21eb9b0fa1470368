package service

import (
	"context"
	"errors"
	"strings"
	"time"

	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	crmRepository "ClientPulse/internal/modules/crm/domain/repository"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

// EscalationResolver 业务单元 -> 负责人
type EscalationResolver interface {
	// FindEscalationOwner 先找 active 业务单元的 owner，找不到再退回任意一个 bu_head；
	// 多个 bu_head 时取存储返回的第一个，不保证稳定。查询失败视为没有负责人
	FindEscalationOwner(ctx context.Context, businessUnitName string) (int64, bool)
}

type escalationResolverImpl struct {
	buRepo      crmRepository.BusinessUnitRepository
	userRepo    crmRepository.UserRepository
	callTimeout time.Duration
}

func NewEscalationResolver(buRepo crmRepository.BusinessUnitRepository, userRepo crmRepository.UserRepository, callTimeout time.Duration) EscalationResolver {
	return &escalationResolverImpl{buRepo: buRepo, userRepo: userRepo, callTimeout: callTimeout}
}

func (r *escalationResolverImpl) FindEscalationOwner(ctx context.Context, businessUnitName string) (int64, bool) {
	name := strings.TrimSpace(businessUnitName)
	if name != "" {
		var bu *crmEntity.BusinessUnit
		err := withTimeout(ctx, r.callTimeout, func(ctx context.Context) error {
			var err error
			bu, err = r.buRepo.GetActiveBusinessUnitByName(ctx, name)
			return err
		})
		switch {
		case err == nil && bu.OwnerId != nil && *bu.OwnerId > 0:
			return *bu.OwnerId, true
		case err != nil && !errors.Is(err, crmRepository.ErrNotFound):
			zlog.Warn("escalation resolver business unit lookup failed",
				zap.String("business_unit", name), zap.Error(err))
		}
	}

	var head *crmEntity.User
	err := withTimeout(ctx, r.callTimeout, func(ctx context.Context) error {
		var err error
		head, err = r.userRepo.FindFirstUserByRole(ctx, crmEntity.RoleBUHead)
		return err
	})
	if err != nil {
		if errors.Is(err, crmRepository.ErrNotFound) {
			zlog.Info("no escalation owner found", zap.String("business_unit", name))
		} else {
			zlog.Warn("escalation resolver bu_head lookup failed", zap.String("business_unit", name), zap.Error(err))
		}
		return 0, false
	}
	return head.Id, true
}
