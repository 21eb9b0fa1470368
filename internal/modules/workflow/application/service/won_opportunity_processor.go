package service

import (
	"context"
	"errors"
	"fmt"

	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	crmRepository "ClientPulse/internal/modules/crm/domain/repository"
	notifService "ClientPulse/internal/modules/notification/application/service"
	notifEntity "ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/workflow/application/dto/respond"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

const entityOpportunity = "opportunity"

// WonOpportunityProcessor 赢单后把服务追加到客户并通知相关人。
// 客户已包含该服务即视为已处理，这是唯一的幂等判断。
type WonOpportunityProcessor interface {
	Process(ctx context.Context) (*respond.ProcessResult, error)
}

type wonOpportunityProcessorImpl struct {
	oppRepo     crmRepository.OpportunityRepository
	clientRepo  crmRepository.ClientRepository
	serviceRepo crmRepository.ServiceRepository
	userRepo    crmRepository.UserRepository
	buRepo      crmRepository.BusinessUnitRepository
	resolver    EscalationResolver
	notifier    notifService.Notifier
	opts        Options
}

func NewWonOpportunityProcessor(
	oppRepo crmRepository.OpportunityRepository,
	clientRepo crmRepository.ClientRepository,
	serviceRepo crmRepository.ServiceRepository,
	userRepo crmRepository.UserRepository,
	buRepo crmRepository.BusinessUnitRepository,
	resolver EscalationResolver,
	notifier notifService.Notifier,
	opts Options,
) WonOpportunityProcessor {
	return &wonOpportunityProcessorImpl{
		oppRepo:     oppRepo,
		clientRepo:  clientRepo,
		serviceRepo: serviceRepo,
		userRepo:    userRepo,
		buRepo:      buRepo,
		resolver:    resolver,
		notifier:    notifier,
		opts:        opts.withDefaults(),
	}
}

func (p *wonOpportunityProcessorImpl) Process(ctx context.Context) (*respond.ProcessResult, error) {
	res := respond.NewProcessResult(respond.ProcessorWonOpportunities, p.opts.Now())
	defer func() { res.FinishedAt = p.opts.Now() }()

	var opps []crmEntity.Opportunity
	err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		opps, err = p.oppRepo.ListWonOpportunities(ctx)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("list won opportunities: %w", err)
	}
	res.Scanned = len(opps)

	for i := range opps {
		if err := ctx.Err(); err != nil {
			res.AddError(entityOpportunity, opps[i].Id, "canceled", err)
			break
		}
		p.processOpportunity(ctx, &opps[i], res)
	}

	if res.Propagated > 0 || len(res.Errors) > 0 {
		zlog.Info("won opportunity processing finished",
			zap.Int("scanned", res.Scanned),
			zap.Int("propagated", res.Propagated),
			zap.Int("errors", len(res.Errors)))
	}
	return res, nil
}

func (p *wonOpportunityProcessorImpl) processOpportunity(ctx context.Context, opp *crmEntity.Opportunity, res *respond.ProcessResult) {
	var client *crmEntity.Client
	err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		client, err = p.clientRepo.GetClientByID(ctx, opp.ClientId)
		return err
	})
	if err != nil {
		p.recordLoadFailure(res, opp, "load_client", err)
		return
	}
	if client.HasService(opp.ServiceId) {
		res.Skipped++
		return
	}

	// 先落库追加服务，再发通知：中途崩溃最多漏发通知，不会出现已通知但服务未追加
	var added bool
	err = withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		added, err = p.clientRepo.AddServiceToClient(ctx, opp.ClientId, opp.ServiceId)
		return err
	})
	if err != nil {
		zlog.Error("append client service failed",
			zap.Int64("opportunity_id", opp.Id), zap.Int64("client_id", opp.ClientId), zap.Error(err))
		res.AddError(entityOpportunity, opp.Id, "append_service", err)
		return
	}
	if !added {
		// 并发写入方已追加，由其负责后续
		res.Skipped++
		return
	}
	res.Propagated++

	var svc *crmEntity.Service
	err = withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		svc, err = p.serviceRepo.GetServiceByID(ctx, opp.ServiceId)
		return err
	})
	if err != nil {
		p.recordLoadFailure(res, opp, "load_service", err)
		return
	}
	assigned, err := p.loadUser(ctx, opp.AssignedUserId)
	if err != nil {
		p.recordLoadFailure(res, opp, "load_assigned_user", err)
		return
	}

	buOwnerID, hasBUOwner := p.resolver.FindEscalationOwner(ctx, p.businessUnitName(ctx, svc))

	targets := make([]int64, 0, 2)
	if client.AccountOwnerId != nil && *client.AccountOwnerId > 0 {
		targets = append(targets, *client.AccountOwnerId)
	}
	if hasBUOwner && (len(targets) == 0 || targets[0] != buOwnerID) {
		targets = append(targets, buOwnerID)
	}
	msg := fmt.Sprintf("Opportunity %q for %s was won. %s has been added to the client's services.", opp.Name, client.Name, svc.Name)
	for _, uid := range targets {
		n := &notifEntity.Notification{
			UserId:    uid,
			Type:      notifEntity.TypeOpportunityWon,
			Title:     "Opportunity won",
			Message:   msg,
			RelatedTo: notifEntity.RelatedToOpportunity,
			RelatedId: opp.Id,
		}
		err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
			return p.notifier.Notify(ctx, n)
		})
		if err != nil {
			// 服务已追加，下一轮不会再处理，这里继续后续收件人
			zlog.Error("won notification failed",
				zap.Int64("opportunity_id", opp.Id), zap.Int64("user_id", uid), zap.Error(err))
			res.AddError(entityOpportunity, opp.Id, "notify", err)
			continue
		}
		res.NotificationsCreated++
	}

	recipients := make([]notifEntity.Recipient, 0, 3)
	for _, uid := range append(targets, assigned.Id) {
		u := assigned
		if uid != assigned.Id {
			if u, err = p.loadUser(ctx, uid); err != nil {
				zlog.Warn("won email recipient lookup failed",
					zap.Int64("opportunity_id", opp.Id), zap.Int64("user_id", uid), zap.Error(err))
				// 服务已追加，不会重试，非缺失类错误必须计入结果
				if !errors.Is(err, crmRepository.ErrNotFound) {
					res.AddError(entityOpportunity, opp.Id, "load_recipient", err)
				}
				continue
			}
		}
		recipients = append(recipients, notifEntity.Recipient{UserId: u.Id, Email: u.Email, Name: u.Name})
	}

	var sent bool
	err = withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		sent, err = p.notifier.SendEmail(ctx, notifService.EmailRequest{
			Recipients: recipients,
			Template:   notifEntity.TemplateOpportunityWon,
			Category:   notifEntity.CategoryOpportunityWon,
			Data: map[string]interface{}{
				"opportunity_id":   opp.Id,
				"opportunity_name": opp.Name,
				"client_name":      client.Name,
				"service_name":     svc.Name,
				"estimated_value":  opp.EstimatedValue,
				"assigned_user":    assigned.Name,
			},
		})
		return err
	})
	if err != nil {
		zlog.Error("won email failed", zap.Int64("opportunity_id", opp.Id), zap.Error(err))
		res.AddError(entityOpportunity, opp.Id, "email", err)
		return
	}
	if sent {
		res.EmailsQueued++
	}
}

func (p *wonOpportunityProcessorImpl) loadUser(ctx context.Context, id int64) (*crmEntity.User, error) {
	var u *crmEntity.User
	err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		u, err = p.userRepo.GetUserByID(ctx, id)
		return err
	})
	return u, err
}

// businessUnitName 服务未归属业务单元或查询失败时返回空，由 resolver 退回 bu_head
func (p *wonOpportunityProcessorImpl) businessUnitName(ctx context.Context, svc *crmEntity.Service) string {
	if svc.BusinessUnitId == nil || *svc.BusinessUnitId <= 0 {
		return ""
	}
	var bu *crmEntity.BusinessUnit
	err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		bu, err = p.buRepo.GetBusinessUnitByID(ctx, *svc.BusinessUnitId)
		return err
	})
	if err != nil {
		zlog.Warn("service business unit lookup failed",
			zap.Int64("service_id", svc.Id), zap.Int64("business_unit_id", *svc.BusinessUnitId), zap.Error(err))
		return ""
	}
	return bu.Name
}

// recordLoadFailure 引用缺失只跳过，其他错误计入本轮失败
func (p *wonOpportunityProcessorImpl) recordLoadFailure(res *respond.ProcessResult, opp *crmEntity.Opportunity, step string, err error) {
	if errors.Is(err, crmRepository.ErrNotFound) {
		zlog.Warn("won opportunity reference missing, skipped",
			zap.Int64("opportunity_id", opp.Id), zap.String("step", step))
		res.Skipped++
		return
	}
	zlog.Error("won opportunity load failed",
		zap.Int64("opportunity_id", opp.Id), zap.String("step", step), zap.Error(err))
	res.AddError(entityOpportunity, opp.Id, step, err)
}
