package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// ErrNotConnected Redis 未初始化
var ErrNotConnected = errors.New("redis not connected")

// SetClient 设置 Redis 客户端（由 internal/initial 调用）
func SetClient(c *redis.Client) {
	client = c
}

// Close 关闭 Redis 连接
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// IsConnected 检查 Redis 是否已连接
func IsConnected() bool {
	return client != nil
}

func GetClient() *redis.Client {
	return client
}

func checkClient() error {
	if client == nil {
		return ErrNotConnected
	}
	return nil
}

// ==================== String 操作 ====================

// Get 获取字符串值，key 不存在时返回 redis.Nil
func Get(ctx context.Context, key string) (string, error) {
	if err := checkClient(); err != nil {
		return "", err
	}
	return client.Get(ctx, key).Result()
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := checkClient(); err != nil {
		return err
	}
	return client.Set(ctx, key, value, expiration).Err()
}

var incrIfExistsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("INCR", KEYS[1])
end
return -1
`)

// IncrIfExists 仅在 key 已存在时自增（计数缓存未预热时不写入错误的初值）
func IncrIfExists(ctx context.Context, key string) (int64, bool, error) {
	if err := checkClient(); err != nil {
		return 0, false, err
	}
	n, err := incrIfExistsScript.Run(ctx, client, []string{key}).Int64()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// ==================== 分布式锁 ====================

// 仅当 value 与持有者一致时删除，避免误删他人续上的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 获取分布式锁，token 用于释放时校验持有者
func Lock(ctx context.Context, key string, token string, expiration time.Duration) (bool, error) {
	if err := checkClient(); err != nil {
		return false, err
	}
	return client.SetNX(ctx, key, token, expiration).Result()
}

// Unlock 释放分布式锁
func Unlock(ctx context.Context, key string, token string) error {
	if err := checkClient(); err != nil {
		return err
	}
	return unlockScript.Run(ctx, client, []string{key}, token).Err()
}
