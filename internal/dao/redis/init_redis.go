// Package redis 提供 Redis 客户端的创建
// 同一个客户端同时服务于 redis 存储模式和 redis 本地缓存槽位
package redis

import (
	"context"
	"strconv"

	"flash_chat_server/internal/config"
	"flash_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient 根据配置创建 Redis 客户端并检查连通性
func NewClient(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	addr := conf.Host + ":" + strconv.Itoa(conf.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     conf.Password,
		DB:           conf.Db,
		PoolSize:     20,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "连接 redis %s 失败", addr)
	}
	zap.L().Info("Redis 连接成功", zap.String("addr", addr), zap.Int("db", conf.Db))
	return client, nil
}
