// Package redis 定义缓存服务接口
// 遵循依赖倒置原则，本地缓存槽位依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// Set 设置键值对并指定过期时间（0 表示不过期）
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值，第二个返回值表示键是否存在
	Get(ctx context.Context, key string) (string, bool, error)
	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
}
