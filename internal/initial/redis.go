package initial

import (
	"context"
	"fmt"
	"time"

	"ClientPulse/internal/config"
	"ClientPulse/pkg/redis"
	"ClientPulse/pkg/zlog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis 未配置主机时跳过；连接失败只告警，依赖 Redis 的功能自动降级
func InitRedis(conf *config.Config) {
	host := conf.RedisConfig.Host
	port := conf.RedisConfig.Port
	if host == "" {
		zlog.Info("redis not configured, skipped")
		return
	}
	if port == 0 {
		port = 6379
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     conf.RedisConfig.Password,
		DB:           conf.RedisConfig.DB,
		PoolSize:     conf.RedisConfig.PoolSize,
		MinIdleConns: conf.RedisConfig.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Error("redis connect failed", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return
	}

	redis.SetClient(client)
	zlog.Info("redis connected", zap.String("addr", addr))
}
