package service

import (
	"context"
	"time"
)

const (
	defaultEscalationThreshold = 24 * time.Hour
	defaultCallTimeout         = 10 * time.Second
)

// Options 处理器共用参数
type Options struct {
	// EscalationThreshold 逾期达到该时长后升级通知业务单元负责人
	EscalationThreshold time.Duration
	// CallTimeout 单次存储 / 通知调用的超时
	CallTimeout time.Duration
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.EscalationThreshold <= 0 {
		o.EscalationThreshold = defaultEscalationThreshold
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = defaultCallTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func withTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(cctx)
}
