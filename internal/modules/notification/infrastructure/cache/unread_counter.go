package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ClientPulse/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

const unreadKeyPrefix = "notify:unread:"

// UnreadCounter 未读通知数缓存；数据库为准，缓存只做加速
type UnreadCounter struct {
	ttl time.Duration
}

func NewUnreadCounter(ttl time.Duration) *UnreadCounter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &UnreadCounter{ttl: ttl}
}

func unreadKey(userID int64) string {
	return unreadKeyPrefix + strconv.FormatInt(userID, 10)
}

// Enabled Redis 未配置时计数缓存整体降级为直查数据库
func (c *UnreadCounter) Enabled() bool {
	return c != nil && redis.IsConnected()
}

// Incr 新通知写入后调用；缓存未预热时跳过
func (c *UnreadCounter) Incr(ctx context.Context, userID int64) error {
	if !c.Enabled() {
		return nil
	}
	_, _, err := redis.IncrIfExists(ctx, unreadKey(userID))
	return err
}

// Get 返回缓存值，ok=false 表示未命中
func (c *UnreadCounter) Get(ctx context.Context, userID int64) (int64, bool, error) {
	if !c.Enabled() {
		return 0, false, nil
	}
	v, err := redis.Get(ctx, unreadKey(userID))
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (c *UnreadCounter) Set(ctx context.Context, userID int64, n int64) error {
	if !c.Enabled() {
		return nil
	}
	return redis.Set(ctx, unreadKey(userID), n, c.ttl)
}
