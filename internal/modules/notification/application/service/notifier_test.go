package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ClientPulse/internal/modules/notification/application/dto/request"
	"ClientPulse/internal/modules/notification/domain/entity"
	"ClientPulse/internal/modules/notification/infrastructure/cache"
	"ClientPulse/internal/modules/notification/infrastructure/persistence"
	"ClientPulse/pkg/redis"
	"ClientPulse/pkg/ws"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	hub      *ws.Hub
	notifier Notifier
	inbox    InboxService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.Notification{}, &entity.NotificationPreference{}, &entity.EmailOutbox{}))

	mr := miniredis.RunT(t)
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = redis.Close() })

	hub := ws.NewHub()
	counter := cache.NewUnreadCounter(time.Minute)
	notifRepo := persistence.NewNotificationRepository(db)
	prefRepo := persistence.NewPreferenceRepository(db)
	return &testEnv{
		db:  db,
		hub: hub,
		notifier: NewNotifier(
			notifRepo,
			prefRepo,
			persistence.NewEmailOutboxRepository(db),
			hub,
			counter,
		),
		inbox: NewInboxService(notifRepo, prefRepo, counter),
	}
}

func TestNotifier_NotifyPersistsAndCounts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	// 首次查询预热缓存
	cnt, err := env.inbox.UnreadCount(ctx, 11)
	require.NoError(t, err)
	assert.EqualValues(t, 0, cnt.Unread)

	n := &entity.Notification{
		UserId:    11,
		Type:      entity.TypeTaskOverdue,
		Title:     "Task overdue",
		Message:   "Task \"Send proposal\" is 3 hours overdue",
		RelatedTo: entity.RelatedToTask,
		RelatedId: 5,
	}
	require.NoError(t, env.notifier.Notify(ctx, n))
	assert.NotEmpty(t, n.NotificationId)
	assert.False(t, n.CreatedAt.IsZero())

	cnt, err = env.inbox.UnreadCount(ctx, 11)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt.Unread)

	items, err := env.inbox.ListNotifications(ctx, 11, request.ListNotificationRequest{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entity.TypeTaskOverdue, items[0].Type)
	assert.EqualValues(t, 5, items[0].RelatedId)
}

func TestNotifier_NotifyRejectsMissingUser(t *testing.T) {
	env := setupTestEnv(t)
	assert.Error(t, env.notifier.Notify(context.Background(), &entity.Notification{Type: entity.TypeTaskOverdue}))
	assert.Error(t, env.notifier.Notify(context.Background(), nil))
}

func TestNotifier_SendEmailFiltersByPreference(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	optedOut := entity.DefaultPreference(2)
	optedOut.OpportunityWon = false
	require.NoError(t, persistence.NewPreferenceRepository(env.db).Upsert(ctx, optedOut))

	ok, err := env.notifier.SendEmail(ctx, EmailRequest{
		Template: entity.TemplateOpportunityWon,
		Category: entity.CategoryOpportunityWon,
		Recipients: []entity.Recipient{
			{UserId: 1, Email: "owner@example.com"},
			{UserId: 2, Email: "opted-out@example.com"},
			{UserId: 1, Email: "owner@example.com"},
			{UserId: 3, Email: ""},
		},
		Data: map[string]interface{}{"opportunity": "Acme rebrand"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	var rows []entity.EmailOutbox
	require.NoError(t, env.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.PublishStatusPending, rows[0].PublishStatus)

	var rcpts []entity.Recipient
	require.NoError(t, json.Unmarshal([]byte(rows[0].RecipientsJson), &rcpts))
	require.Len(t, rcpts, 1)
	assert.EqualValues(t, 1, rcpts[0].UserId)
}

func TestNotifier_SendEmailSkipsWhenAllOptedOut(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	pref := entity.DefaultPreference(9)
	pref.TaskOverdue = false
	require.NoError(t, persistence.NewPreferenceRepository(env.db).Upsert(ctx, pref))

	ok, err := env.notifier.SendEmail(ctx, EmailRequest{
		Template:   entity.TemplateTaskOverdue,
		Category:   entity.CategoryTaskOverdue,
		Recipients: []entity.Recipient{{UserId: 9, Email: "quiet@example.com"}},
	})
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	require.NoError(t, env.db.Model(&entity.EmailOutbox{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotifier_SendEmailRequiresTemplate(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.notifier.SendEmail(context.Background(), EmailRequest{})
	assert.Error(t, err)
}

func TestInboxService_PreferenceRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	pref, err := env.inbox.GetPreference(ctx, 21)
	require.NoError(t, err)
	assert.True(t, pref.TaskOverdue)
	assert.True(t, pref.Digest)

	off := false
	pref, err = env.inbox.UpdatePreference(ctx, 21, request.UpdatePreferenceRequest{TaskOverdue: &off})
	require.NoError(t, err)
	assert.False(t, pref.TaskOverdue)
	assert.True(t, pref.OpportunityWon)

	pref, err = env.inbox.UpdatePreference(ctx, 21, request.UpdatePreferenceRequest{Digest: &off})
	require.NoError(t, err)
	assert.False(t, pref.TaskOverdue, "未传字段保持原值")
	assert.False(t, pref.Digest)

	// 关闭后该类邮件不再入队
	sent, err := env.notifier.SendEmail(ctx, EmailRequest{
		Recipients: []entity.Recipient{{UserId: 21, Email: "u21@example.com"}},
		Template:   entity.TemplateTaskOverdue,
		Category:   entity.CategoryTaskOverdue,
	})
	require.NoError(t, err)
	assert.False(t, sent)
}
