package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	crmRepository "ClientPulse/internal/modules/crm/domain/repository"
	notifService "ClientPulse/internal/modules/notification/application/service"
	notifEntity "ClientPulse/internal/modules/notification/domain/entity"
)

// eventLog 记录跨 fake 的写入顺序
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeTaskRepo struct {
	tasks   []crmEntity.OverdueTaskView
	err     error
	queried []time.Time
}

func (f *fakeTaskRepo) ListOverdueTasks(ctx context.Context, now time.Time) ([]crmEntity.OverdueTaskView, error) {
	f.queried = append(f.queried, now)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]crmEntity.OverdueTaskView, 0, len(f.tasks))
	for _, t := range f.tasks {
		if t.Status != crmEntity.TaskStatusCompleted && t.DueAt.Before(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users   map[int64]*crmEntity.User
	err     error
	roleErr error
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*crmEntity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, crmRepository.ErrNotFound
}

func (f *fakeUserRepo) FindFirstUserByRole(ctx context.Context, role string) (*crmEntity.User, error) {
	if f.roleErr != nil {
		return nil, f.roleErr
	}
	var first *crmEntity.User
	for _, u := range f.users {
		if u.Role == role && (first == nil || u.Id < first.Id) {
			first = u
		}
	}
	if first == nil {
		return nil, crmRepository.ErrNotFound
	}
	return first, nil
}

type fakeBURepo struct {
	units []*crmEntity.BusinessUnit
	err   error
}

func (f *fakeBURepo) GetBusinessUnitByID(ctx context.Context, id int64) (*crmEntity.BusinessUnit, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, bu := range f.units {
		if bu.Id == id {
			return bu, nil
		}
	}
	return nil, crmRepository.ErrNotFound
}

func (f *fakeBURepo) GetActiveBusinessUnitByName(ctx context.Context, name string) (*crmEntity.BusinessUnit, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, bu := range f.units {
		if bu.Name == name && bu.Status == crmEntity.BusinessUnitStatusActive {
			return bu, nil
		}
	}
	return nil, crmRepository.ErrNotFound
}

type fakeOpportunityRepo struct {
	opps []crmEntity.Opportunity
	err  error
}

func (f *fakeOpportunityRepo) ListWonOpportunities(ctx context.Context) ([]crmEntity.Opportunity, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]crmEntity.Opportunity, 0)
	for _, o := range f.opps {
		if o.Status == crmEntity.OpportunityStatusWon {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[int64]*crmEntity.Client
	addErr  error

	// blockAdd 中的客户追加会一直挂起到 ctx 结束
	blockAdd map[int64]bool
	log      *eventLog
}

func (f *fakeClientRepo) GetClientByID(ctx context.Context, id int64) (*crmEntity.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, crmRepository.ErrNotFound
	}
	cp := *c
	cp.ServicesUsed = append([]int64(nil), c.ServicesUsed...)
	return &cp, nil
}

func (f *fakeClientRepo) AddServiceToClient(ctx context.Context, clientID int64, serviceID int64) (bool, error) {
	if f.addErr != nil {
		return false, f.addErr
	}
	if f.blockAdd[clientID] {
		<-ctx.Done()
		return false, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[clientID]
	if !ok {
		return false, crmRepository.ErrNotFound
	}
	if c.HasService(serviceID) {
		return false, nil
	}
	c.ServicesUsed = append(c.ServicesUsed, serviceID)
	if f.log != nil {
		f.log.add("append client=%d service=%d", clientID, serviceID)
	}
	return true, nil
}

type fakeServiceRepo struct {
	services map[int64]*crmEntity.Service
}

func (f *fakeServiceRepo) GetServiceByID(ctx context.Context, id int64) (*crmEntity.Service, error) {
	if s, ok := f.services[id]; ok {
		return s, nil
	}
	return nil, crmRepository.ErrNotFound
}

// fakeNotifier 不做偏好过滤，只记录调用
type fakeNotifier struct {
	mu        sync.Mutex
	notifs    []notifEntity.Notification
	emails    []notifService.EmailRequest
	notifyErr func(n *notifEntity.Notification) error

	// notifyBlock 返回 true 的通知挂起到 ctx 结束
	notifyBlock func(n *notifEntity.Notification) bool
	emailErr    error
	log         *eventLog
}

func (f *fakeNotifier) Notify(ctx context.Context, n *notifEntity.Notification) error {
	if f.notifyBlock != nil && f.notifyBlock(n) {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.notifyErr != nil {
		if err := f.notifyErr(n); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifs = append(f.notifs, *n)
	if f.log != nil {
		f.log.add("notify user=%d type=%s", n.UserId, n.Type)
	}
	return nil
}

func (f *fakeNotifier) SendEmail(ctx context.Context, req notifService.EmailRequest) (bool, error) {
	if f.emailErr != nil {
		return false, f.emailErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(req.Recipients) == 0 {
		return false, nil
	}
	f.emails = append(f.emails, req)
	if f.log != nil {
		f.log.add("email template=%s", req.Template)
	}
	return true, nil
}

func (f *fakeNotifier) byType(typ string) []notifEntity.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notifEntity.Notification, 0)
	for _, n := range f.notifs {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// fakeResolver 固定返回值
type fakeResolver struct {
	owner int64
	ok    bool
	calls []string
}

func (f *fakeResolver) FindEscalationOwner(ctx context.Context, businessUnitName string) (int64, bool) {
	f.calls = append(f.calls, businessUnitName)
	return f.owner, f.ok
}

var errBoom = errors.New("boom")

func int64Ptr(v int64) *int64 { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
