package service

import (
	"context"
	"errors"
	"testing"
	"time"

	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	notifEntity "ClientPulse/internal/modules/notification/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func overdueTask(id int64, name string, assignee int64, dueAgo time.Duration, bu string) crmEntity.OverdueTaskView {
	return crmEntity.OverdueTaskView{
		Task: crmEntity.Task{
			Id:             id,
			Name:           name,
			AssignedUserId: assignee,
			DueAt:          baseNow.Add(-dueAgo),
			Status:         crmEntity.TaskStatusPending,
		},
		AssigneeEmail:    "user@example.com",
		AssigneeName:     "User",
		BusinessUnitName: bu,
	}
}

type overdueEnv struct {
	tasks    *fakeTaskRepo
	users    *fakeUserRepo
	resolver *fakeResolver
	notifier *fakeNotifier
	proc     OverdueTaskProcessor
}

func newOverdueEnv(tasks ...crmEntity.OverdueTaskView) *overdueEnv {
	env := &overdueEnv{
		tasks: &fakeTaskRepo{tasks: tasks},
		users: &fakeUserRepo{users: map[int64]*crmEntity.User{
			3: {Id: 3, Email: "owen@example.com", Name: "Owen", Role: crmEntity.RoleBUHead},
		}},
		resolver: &fakeResolver{owner: 3, ok: true},
		notifier: &fakeNotifier{},
	}
	env.proc = NewOverdueTaskProcessor(env.tasks, env.users, env.resolver, env.notifier, Options{Now: fixedClock(baseNow)})
	return env
}

func TestOverdueTaskProcessor_BelowThresholdNotifiesAssigneeOnly(t *testing.T) {
	env := newOverdueEnv(overdueTask(1, "Send proposal", 11, 2*time.Hour, "Creative"))

	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)

	require.Len(t, env.notifier.notifs, 1)
	n := env.notifier.notifs[0]
	assert.EqualValues(t, 11, n.UserId)
	assert.Equal(t, notifEntity.TypeTaskOverdue, n.Type)
	assert.Equal(t, notifEntity.RelatedToTask, n.RelatedTo)
	assert.EqualValues(t, 1, n.RelatedId)
	assert.Contains(t, n.Message, "2 hours overdue")

	require.Len(t, env.notifier.emails, 1)
	assert.Equal(t, notifEntity.TemplateTaskOverdue, env.notifier.emails[0].Template)
	assert.Equal(t, notifEntity.CategoryTaskOverdue, env.notifier.emails[0].Category)
	assert.Empty(t, env.resolver.calls)

	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, 1, res.NotificationsCreated)
	assert.Equal(t, 1, res.EmailsQueued)
	assert.Zero(t, res.Escalations)
	assert.Empty(t, res.Errors)
}

func TestOverdueTaskProcessor_EscalatesPastThreshold(t *testing.T) {
	env := newOverdueEnv(overdueTask(2, "Review contract", 12, 30*time.Hour, "Creative"))

	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)

	require.Len(t, env.notifier.byType(notifEntity.TypeTaskOverdue), 1)
	esc := env.notifier.byType(notifEntity.TypeTaskEscalation)
	require.Len(t, esc, 1)
	assert.EqualValues(t, 3, esc[0].UserId)
	assert.EqualValues(t, 2, esc[0].RelatedId)
	assert.Equal(t, []string{"Creative"}, env.resolver.calls)

	require.Len(t, env.notifier.emails, 2)
	escEmail := env.notifier.emails[1]
	assert.Equal(t, notifEntity.TemplateTaskEscalation, escEmail.Template)
	assert.Equal(t, notifEntity.CategoryTaskEscalations, escEmail.Category)
	require.Len(t, escEmail.Recipients, 1)
	assert.Equal(t, "owen@example.com", escEmail.Recipients[0].Email)
	assert.EqualValues(t, 30, escEmail.Data["hours_overdue"])

	assert.Equal(t, 1, res.Escalations)
	assert.Equal(t, 2, res.NotificationsCreated)
	assert.Equal(t, 2, res.EmailsQueued)
}

func TestOverdueTaskProcessor_ThresholdBoundary(t *testing.T) {
	env := newOverdueEnv(
		overdueTask(1, "just under", 11, 24*time.Hour-time.Second, "Creative"),
		overdueTask(2, "exactly", 12, 24*time.Hour, "Creative"),
	)
	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)

	esc := env.notifier.byType(notifEntity.TypeTaskEscalation)
	require.Len(t, esc, 1)
	assert.EqualValues(t, 2, esc[0].RelatedId)
	assert.Equal(t, 1, res.Escalations)
}

func TestOverdueTaskProcessor_NoOwnerSkipsEscalation(t *testing.T) {
	env := newOverdueEnv(overdueTask(2, "Review contract", 12, 48*time.Hour, "Nowhere"))
	env.resolver.ok = false

	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)
	assert.Len(t, env.notifier.notifs, 1)
	assert.Zero(t, res.Escalations)
	assert.Empty(t, res.Errors)
}

func TestOverdueTaskProcessor_RepeatsEveryRun(t *testing.T) {
	env := newOverdueEnv(
		overdueTask(1, "Send proposal", 11, 2*time.Hour, "Creative"),
		overdueTask(2, "Review contract", 12, 30*time.Hour, "Creative"),
	)
	ctx := context.Background()
	_, err := env.proc.Process(ctx)
	require.NoError(t, err)
	_, err = env.proc.Process(ctx)
	require.NoError(t, err)

	assert.Len(t, env.notifier.byType(notifEntity.TypeTaskOverdue), 4)
	assert.Len(t, env.notifier.byType(notifEntity.TypeTaskEscalation), 2)
}

func TestOverdueTaskProcessor_SkipsCompletedAndFuture(t *testing.T) {
	done := overdueTask(1, "done", 11, 5*time.Hour, "Creative")
	done.Status = crmEntity.TaskStatusCompleted
	future := overdueTask(2, "later", 12, -time.Hour, "Creative")

	env := newOverdueEnv(done, future)
	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.Empty(t, env.notifier.notifs)
}

func TestOverdueTaskProcessor_UsesOneNowPerBatch(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return baseNow.Add(time.Duration(calls) * time.Hour)
	}
	env := newOverdueEnv(overdueTask(1, "a", 11, 23*time.Hour+30*time.Minute, "Creative"))
	env.proc = NewOverdueTaskProcessor(env.tasks, env.users, env.resolver, env.notifier, Options{Now: clock})

	_, err := env.proc.Process(context.Background())
	require.NoError(t, err)
	require.Len(t, env.tasks.queried, 1)
	// 查询时刻 baseNow+1h，逾期 24h30m
	assert.Equal(t, baseNow.Add(time.Hour), env.tasks.queried[0])
	assert.Len(t, env.notifier.byType(notifEntity.TypeTaskEscalation), 1)
}

func TestOverdueTaskProcessor_PerTaskErrorsAreAggregated(t *testing.T) {
	env := newOverdueEnv(
		overdueTask(1, "broken", 11, 2*time.Hour, "Creative"),
		overdueTask(2, "fine", 12, 2*time.Hour, "Creative"),
	)
	env.notifier.notifyErr = func(n *notifEntity.Notification) error {
		if n.RelatedId == 1 {
			return errBoom
		}
		return nil
	}

	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "task", res.Errors[0].Entity)
	assert.EqualValues(t, 1, res.Errors[0].EntityId)
	assert.Equal(t, "notify_assignee", res.Errors[0].Step)

	require.Len(t, env.notifier.notifs, 1)
	assert.EqualValues(t, 2, env.notifier.notifs[0].RelatedId)
	assert.Len(t, env.notifier.emails, 1)
}

func TestOverdueTaskProcessor_QueryFailure(t *testing.T) {
	env := newOverdueEnv()
	env.tasks.err = errBoom

	res, err := env.proc.Process(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	require.NotNil(t, res)
	assert.Zero(t, res.Scanned)
}

func TestOverdueTaskProcessor_EmailFailureRecorded(t *testing.T) {
	env := newOverdueEnv(overdueTask(2, "Review contract", 12, 30*time.Hour, "Creative"))
	env.notifier.emailErr = errBoom

	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "email_assignee", res.Errors[0].Step)
	// 本轮放弃该任务，下一轮重试
	assert.Empty(t, env.notifier.byType(notifEntity.TypeTaskEscalation))
}

func TestOverdueTaskProcessor_StuckCallTimesOut(t *testing.T) {
	env := newOverdueEnv(
		overdueTask(1, "stuck", 11, 2*time.Hour, "Creative"),
		overdueTask(2, "fine", 12, 2*time.Hour, "Creative"),
	)
	env.notifier.notifyBlock = func(n *notifEntity.Notification) bool { return n.RelatedId == 1 }
	env.proc = NewOverdueTaskProcessor(env.tasks, env.users, env.resolver, env.notifier,
		Options{Now: fixedClock(baseNow), CallTimeout: 20 * time.Millisecond})

	start := time.Now()
	res, err := env.proc.Process(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, res.Errors, 1)
	assert.EqualValues(t, 1, res.Errors[0].EntityId)
	assert.Equal(t, "notify_assignee", res.Errors[0].Step)
	assert.Contains(t, res.Errors[0].Message, context.DeadlineExceeded.Error())

	require.Len(t, env.notifier.notifs, 1)
	assert.EqualValues(t, 2, env.notifier.notifs[0].RelatedId)
	assert.Equal(t, 1, res.EmailsQueued)
}
