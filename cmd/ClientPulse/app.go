package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ClientPulse/internal/config"
	"ClientPulse/internal/initial"
	crmPersistence "ClientPulse/internal/modules/crm/infrastructure/persistence"
	notifService "ClientPulse/internal/modules/notification/application/service"
	notifRepository "ClientPulse/internal/modules/notification/domain/repository"
	"ClientPulse/internal/modules/notification/infrastructure/cache"
	"ClientPulse/internal/modules/notification/infrastructure/mq"
	"ClientPulse/internal/modules/notification/infrastructure/mq/kafka"
	notifPersistence "ClientPulse/internal/modules/notification/infrastructure/persistence"
	"ClientPulse/internal/modules/notification/infrastructure/queue"
	workflowService "ClientPulse/internal/modules/workflow/application/service"
	"ClientPulse/internal/modules/workflow/interface/scheduler"
	"ClientPulse/pkg/redis"
	"ClientPulse/pkg/util/myjwt"
	"ClientPulse/pkg/ws"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application 进程内共享的组件
type application struct {
	conf       *config.Config
	db         *gorm.DB
	hub        *ws.Hub
	signer     *myjwt.Signer
	inbox      notifService.InboxService
	outboxRepo notifRepository.EmailOutboxRepository
	scheduler  *scheduler.Manager
	publisher  mq.Publisher
}

func setupLogger(conf *config.Config) error {
	return zlog.Init(zlog.Options{
		LogPath:    conf.LogConfig.LogPath,
		Level:      conf.LogConfig.Level,
		MaxSizeMB:  conf.LogConfig.MaxSizeMB,
		MaxBackups: conf.LogConfig.MaxBackups,
		MaxAgeDays: conf.LogConfig.MaxAgeDays,
		Console:    conf.LogConfig.Console,
	})
}

func newApplication(conf *config.Config) (*application, error) {
	db, err := initial.InitGorm(conf)
	if err != nil {
		return nil, err
	}
	initial.InitRedis(conf)

	hub := ws.NewHub()
	counter := cache.NewUnreadCounter(10 * time.Minute)
	notifRepo := notifPersistence.NewNotificationRepository(db)
	outboxRepo := notifPersistence.NewEmailOutboxRepository(db)
	prefRepo := notifPersistence.NewPreferenceRepository(db)
	notifier := notifService.NewNotifier(notifRepo, prefRepo, outboxRepo, hub, counter)

	wf := conf.WorkflowConfig
	opts := workflowService.Options{
		EscalationThreshold: wf.EscalationThreshold(),
		CallTimeout:         wf.CallTimeout(),
	}
	userRepo := crmPersistence.NewUserRepository(db)
	buRepo := crmPersistence.NewBusinessUnitRepository(db)
	resolver := workflowService.NewEscalationResolver(buRepo, userRepo, opts.CallTimeout)
	svc := workflowService.NewWorkflowService(
		workflowService.NewOverdueTaskProcessor(crmPersistence.NewTaskRepository(db), userRepo, resolver, notifier, opts),
		workflowService.NewWonOpportunityProcessor(
			crmPersistence.NewOpportunityRepository(db),
			crmPersistence.NewClientRepository(db),
			crmPersistence.NewServiceRepository(db),
			userRepo, buRepo, resolver, notifier, opts,
		),
	)

	return &application{
		conf:       conf,
		db:         db,
		hub:        hub,
		signer:     myjwt.NewSigner(conf.JwtConfig.Key, conf.JwtConfig.Issuer, conf.JwtConfig.ExpireHours),
		inbox:      notifService.NewInboxService(notifRepo, prefRepo, counter),
		outboxRepo: outboxRepo,
		scheduler: scheduler.NewManager(svc, scheduler.Options{
			Interval:        wf.Interval(),
			RunOnStart:      wf.RunOnStart,
			PreventOverlap:  wf.PreventOverlap,
			DistributedLock: wf.DistributedLock,
			LockTTL:         wf.LockTTL(),
		}),
	}, nil
}

// startRelay 未配置 Kafka 时邮件留在 outbox，待配置后补投
func (a *application) startRelay(ctx context.Context) {
	kc := a.conf.KafkaConfig
	if len(kc.Brokers) == 0 {
		zlog.Warn("kafka brokers not configured, email outbox relay disabled")
		return
	}
	err := kafka.EnsureTopic(kafka.TopicAdminConfig{Brokers: kc.Brokers, ClientID: kc.ClientID}, kafka.TopicSpec{
		Name:              kc.EmailTopic,
		Partitions:        kc.Partitions,
		ReplicationFactor: kc.Replication,
		Retention:         kc.Retention(),
		CleanupPolicy:     kc.CleanupPolicy,
	})
	if err != nil {
		zlog.Warn("ensure email topic failed", zap.String("topic", kc.EmailTopic), zap.Error(err))
	}
	pub, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{Brokers: kc.Brokers, ClientID: kc.ClientID})
	if err != nil {
		zlog.Error("kafka publisher init failed, email outbox relay disabled",
			zap.String("brokers", strings.Join(kc.Brokers, ",")), zap.Error(err))
		return
	}
	a.publisher = pub

	oc := a.conf.OutboxConfig
	relay := queue.NewEmailOutboxRelay(a.outboxRepo, pub, kc.EmailTopic, oc.BatchSize, oc.PollInterval())
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("email outbox relay stopped", zap.Error(err))
		}
	}()
	zlog.Info("email outbox relay started", zap.String("topic", kc.EmailTopic))
}

func (a *application) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			zlog.Warn("kafka publisher close failed", zap.Error(err))
		}
	}
	if err := redis.Close(); err != nil {
		zlog.Warn("redis close failed", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *application) addr() string {
	return fmt.Sprintf("%s:%d", a.conf.MainConfig.Host, a.conf.MainConfig.Port)
}
