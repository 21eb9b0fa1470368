package service

import (
	"context"
	"fmt"

	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	crmRepository "ClientPulse/internal/modules/crm/domain/repository"
	notifService "ClientPulse/internal/modules/notification/application/service"
	notifEntity "ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/workflow/application/dto/respond"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

const entityTask = "task"

// OverdueTaskProcessor 逾期任务提醒与升级。
// 任务在完成前每一轮都会重新提醒（升级同理），不做冷却去重。
type OverdueTaskProcessor interface {
	Process(ctx context.Context) (*respond.ProcessResult, error)
}

type overdueTaskProcessorImpl struct {
	taskRepo crmRepository.TaskRepository
	userRepo crmRepository.UserRepository
	resolver EscalationResolver
	notifier notifService.Notifier
	opts     Options
}

func NewOverdueTaskProcessor(taskRepo crmRepository.TaskRepository, userRepo crmRepository.UserRepository, resolver EscalationResolver, notifier notifService.Notifier, opts Options) OverdueTaskProcessor {
	return &overdueTaskProcessorImpl{
		taskRepo: taskRepo,
		userRepo: userRepo,
		resolver: resolver,
		notifier: notifier,
		opts:     opts.withDefaults(),
	}
}

func (p *overdueTaskProcessorImpl) Process(ctx context.Context) (*respond.ProcessResult, error) {
	// 整批使用同一个 now
	now := p.opts.Now()
	res := respond.NewProcessResult(respond.ProcessorOverdueTasks, now)
	defer func() { res.FinishedAt = p.opts.Now() }()

	var tasks []crmEntity.OverdueTaskView
	err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		tasks, err = p.taskRepo.ListOverdueTasks(ctx, now)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("list overdue tasks: %w", err)
	}
	res.Scanned = len(tasks)

	thresholdHours := int64(p.opts.EscalationThreshold.Hours())
	for i := range tasks {
		if err := ctx.Err(); err != nil {
			res.AddError(entityTask, tasks[i].Id, "canceled", err)
			break
		}
		p.processTask(ctx, &tasks[i], tasks[i].HoursOverdue(now), thresholdHours, res)
	}

	if len(res.Errors) > 0 {
		zlog.Warn("overdue task processing finished with errors",
			zap.Int("scanned", res.Scanned), zap.Int("errors", len(res.Errors)))
	}
	return res, nil
}

func (p *overdueTaskProcessorImpl) processTask(ctx context.Context, t *crmEntity.OverdueTaskView, hours int64, thresholdHours int64, res *respond.ProcessResult) {
	notif := &notifEntity.Notification{
		UserId:    t.AssignedUserId,
		Type:      notifEntity.TypeTaskOverdue,
		Title:     "Task overdue",
		Message:   fmt.Sprintf("Task %q is %d hours overdue", t.Name, hours),
		RelatedTo: notifEntity.RelatedToTask,
		RelatedId: t.Id,
	}
	if err := p.notify(ctx, notif); err != nil {
		zlog.Error("overdue notification failed", zap.Int64("task_id", t.Id), zap.Error(err))
		res.AddError(entityTask, t.Id, "notify_assignee", err)
		return
	}
	res.NotificationsCreated++

	data := map[string]interface{}{
		"task_id":       t.Id,
		"task_name":     t.Name,
		"hours_overdue": hours,
		"due_at":        t.DueAt,
		"business_unit": t.BusinessUnitName,
	}
	sent, err := p.sendEmail(ctx, notifService.EmailRequest{
		Recipients: []notifEntity.Recipient{{UserId: t.AssignedUserId, Email: t.AssigneeEmail, Name: t.AssigneeName}},
		Template:   notifEntity.TemplateTaskOverdue,
		Category:   notifEntity.CategoryTaskOverdue,
		Data:       data,
	})
	if err != nil {
		zlog.Error("overdue email failed", zap.Int64("task_id", t.Id), zap.Error(err))
		res.AddError(entityTask, t.Id, "email_assignee", err)
		return
	}
	if sent {
		res.EmailsQueued++
	}

	if hours < thresholdHours {
		return
	}
	ownerID, ok := p.resolver.FindEscalationOwner(ctx, t.BusinessUnitName)
	if !ok {
		zlog.Info("escalation skipped, no owner",
			zap.Int64("task_id", t.Id), zap.String("business_unit", t.BusinessUnitName))
		return
	}

	assignee := t.AssigneeName
	if assignee == "" {
		assignee = t.AssigneeEmail
	}
	esc := &notifEntity.Notification{
		UserId:    ownerID,
		Type:      notifEntity.TypeTaskEscalation,
		Title:     "Task overdue escalation",
		Message:   fmt.Sprintf("Task %q assigned to %s is %d hours overdue", t.Name, assignee, hours),
		RelatedTo: notifEntity.RelatedToTask,
		RelatedId: t.Id,
	}
	if err := p.notify(ctx, esc); err != nil {
		zlog.Error("escalation notification failed", zap.Int64("task_id", t.Id), zap.Int64("owner_id", ownerID), zap.Error(err))
		res.AddError(entityTask, t.Id, "notify_escalation", err)
		return
	}
	res.NotificationsCreated++
	res.Escalations++

	var owner *crmEntity.User
	err = withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		owner, err = p.userRepo.GetUserByID(ctx, ownerID)
		return err
	})
	if err != nil {
		zlog.Warn("escalation owner lookup failed, email skipped",
			zap.Int64("task_id", t.Id), zap.Int64("owner_id", ownerID), zap.Error(err))
		res.AddError(entityTask, t.Id, "load_escalation_owner", err)
		return
	}
	data["assignee"] = assignee
	sent, err = p.sendEmail(ctx, notifService.EmailRequest{
		Recipients: []notifEntity.Recipient{{UserId: owner.Id, Email: owner.Email, Name: owner.Name}},
		Template:   notifEntity.TemplateTaskEscalation,
		Category:   notifEntity.CategoryTaskEscalations,
		Data:       data,
	})
	if err != nil {
		zlog.Error("escalation email failed", zap.Int64("task_id", t.Id), zap.Error(err))
		res.AddError(entityTask, t.Id, "email_escalation", err)
		return
	}
	if sent {
		res.EmailsQueued++
	}
}

func (p *overdueTaskProcessorImpl) notify(ctx context.Context, n *notifEntity.Notification) error {
	return withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		return p.notifier.Notify(ctx, n)
	})
}

func (p *overdueTaskProcessorImpl) sendEmail(ctx context.Context, req notifService.EmailRequest) (bool, error) {
	var sent bool
	err := withTimeout(ctx, p.opts.CallTimeout, func(ctx context.Context) error {
		var err error
		sent, err = p.notifier.SendEmail(ctx, req)
		return err
	})
	return sent, err
}
