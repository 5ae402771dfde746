package localcache

import (
	"context"

	myredis "flash_chat_server/internal/dao/redis"
)

// RedisSlot 存放在 Redis 中的槽位，key 按节点名区分
type RedisSlot struct {
	cache myredis.CacheService
	key   string
}

// NewRedisSlot 创建 Redis 槽位
func NewRedisSlot(cache myredis.CacheService, key string) *RedisSlot {
	return &RedisSlot{cache: cache, key: key}
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, bool, error) {
	v, ok, err := s.cache.Get(ctx, s.key)
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// Save 不设置过期时间
func (s *RedisSlot) Save(ctx context.Context, value []byte) error {
	return s.cache.Set(ctx, s.key, string(value), 0)
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}

var _ Slot = (*RedisSlot)(nil)
