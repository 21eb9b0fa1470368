package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ClientPulse/internal/modules/workflow/application/dto/respond"
	"ClientPulse/internal/modules/workflow/application/service"
	"ClientPulse/pkg/redis"
	"ClientPulse/pkg/util"
	"ClientPulse/pkg/xerr"
	"ClientPulse/pkg/zlog"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	defaultInterval = time.Hour
	defaultLockKey  = "workflow:run:lock"

	TriggerStartup = "startup"
	TriggerCron    = "cron"
	TriggerManual  = "manual"
)

type Options struct {
	Interval   time.Duration
	RunOnStart bool
	// PreventOverlap 上一轮未结束时拒绝新的运行（cron / 启动 / 手动触发共用）
	PreventOverlap bool
	// DistributedLock 多实例部署时用 Redis 锁保证同一时刻只有一个实例在跑
	DistributedLock bool
	LockTTL         time.Duration
	LockKey         string
}

// ErrStopped Stop 之后不再接受手动触发
var ErrStopped = errors.New("workflow scheduler stopped")

// Manager 工作流定时调度，持有唯一的 cron 实例
type Manager struct {
	cron    *cron.Cron
	svc     service.WorkflowService
	opts    Options
	mu      sync.Mutex
	entryID cron.EntryID
	started bool
	stopped bool
	running atomic.Bool
	wg      sync.WaitGroup
}

func NewManager(svc service.WorkflowService, opts Options) *Manager {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.LockKey == "" {
		opts.LockKey = defaultLockKey
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}

	logger := cronLogger{}
	return &Manager{
		cron: cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger))),
		svc:  svc,
		opts: opts,
	}
}

func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("workflow scheduler already started")
	}
	if m.stopped {
		return ErrStopped
	}

	spec := fmt.Sprintf("@every %s", m.opts.Interval)
	id, err := m.cron.AddFunc(spec, func() {
		_, _ = m.run(context.Background(), TriggerCron)
	})
	if err != nil {
		return fmt.Errorf("schedule workflows %q: %w", spec, err)
	}
	m.entryID = id
	m.started = true
	m.cron.Start()

	if m.opts.RunOnStart {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			_, _ = m.run(context.Background(), TriggerStartup)
		}()
	}
	zlog.Info("workflow scheduler started",
		zap.Duration("interval", m.opts.Interval),
		zap.Bool("run_on_start", m.opts.RunOnStart),
		zap.Bool("prevent_overlap", m.opts.PreventOverlap),
		zap.Bool("distributed_lock", m.opts.DistributedLock))
	return nil
}

// Stop 停止调度，返回的 context 在所有进行中的运行结束后 Done
func (m *Manager) Stop() context.Context {
	// 置位与 TriggerNow 的 wg.Add 在同一把锁下，保证 Wait 开始后不会再有 Add
	m.mu.Lock()
	m.started = false
	m.stopped = true
	m.mu.Unlock()

	cronCtx := m.cron.Stop()
	done, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		m.wg.Wait()
		cancel()
	}()
	return done
}

// NextRun 下一次 cron 触发时间；未启动时为零值
func (m *Manager) NextRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return time.Time{}
	}
	return m.cron.Entry(m.entryID).Next
}

// TriggerNow 同步执行一轮，供管理接口与命令行使用；无需先 Start
func (m *Manager) TriggerNow(ctx context.Context) (*respond.RunResult, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrStopped
	}
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()
	return m.run(ctx, TriggerManual)
}

func (m *Manager) run(ctx context.Context, trigger string) (*respond.RunResult, error) {
	if m.opts.PreventOverlap {
		if !m.running.CompareAndSwap(false, true) {
			zlog.Info("workflow run skipped, previous run still in progress", zap.String("trigger", trigger))
			return nil, xerr.ErrRunning
		}
		defer m.running.Store(false)
	}
	if m.opts.DistributedLock && redis.IsConnected() {
		token := util.GenerateUUID()
		ok, err := redis.Lock(ctx, m.opts.LockKey, token, m.opts.LockTTL)
		switch {
		case err != nil:
			// Redis 不可用时退化为单实例语义
			zlog.Warn("workflow lock unavailable, running without it", zap.String("trigger", trigger), zap.Error(err))
		case !ok:
			zlog.Info("workflow run skipped, another instance holds the lock", zap.String("trigger", trigger))
			return nil, xerr.ErrRunning
		default:
			defer func() {
				if err := redis.Unlock(context.Background(), m.opts.LockKey, token); err != nil {
					zlog.Warn("workflow lock release failed", zap.Error(err))
				}
			}()
		}
	}

	res, err := m.svc.RunWorkflows(ctx)
	if res != nil {
		res.Trigger = trigger
	}
	if err != nil {
		// 整体失败只记录，下一次触发会重试
		zlog.Error("workflow run failed", zap.String("trigger", trigger), zap.Error(err))
	}
	return res, err
}

// cronLogger 把 cron 内部日志接到 zlog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zlog.L().Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zlog.L().Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
