// Package localcache 实现节点本地的持久化槽位
// 目前只有一个槽位：当前登录用户（启动时读取一次，用户变化时写入，登出时清除）
package localcache

import (
	"context"
	"fmt"
	"sync"

	"flash_chat_server/internal/config"
	myredis "flash_chat_server/internal/dao/redis"
)

// 槽位后端
const (
	ModeMemory = "memory"
	ModePebble = "pebble"
	ModeRedis  = "redis"
)

// Slot 单个持久化槽位
type Slot interface {
	// Load 读取槽位，第二个返回值表示是否有值
	Load(ctx context.Context) ([]byte, bool, error)
	// Save 覆盖写入
	Save(ctx context.Context, value []byte) error
	// Clear 清空槽位（不存在时不报错）
	Clear(ctx context.Context) error
}

// MemorySlot 进程内槽位，重启即丢失，用于测试和无状态部署
type MemorySlot struct {
	mu    sync.Mutex
	value []byte
	set   bool
}

// NewMemorySlot 创建空的内存槽位
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	return append([]byte(nil), s.value...), true, nil
}

func (s *MemorySlot) Save(_ context.Context, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = append([]byte(nil), value...)
	s.set = true
	return nil
}

func (s *MemorySlot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.set = nil, false
	return nil
}

// New 根据 cacheConfig.mode 创建当前用户槽位
// 返回的 close 函数用于释放 pebble 等底层资源
func New(conf *config.Config, cache myredis.CacheService) (Slot, func() error, error) {
	noop := func() error { return nil }
	switch conf.CacheConfig.Mode {
	case ModeMemory, "":
		return NewMemorySlot(), noop, nil
	case ModePebble:
		s, err := OpenPebbleSlot(conf.CacheConfig.Path, SlotName)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case ModeRedis:
		if cache == nil {
			return nil, nil, fmt.Errorf("cache mode redis requires a redis client")
		}
		key := conf.StoreConfig.Namespace + "current_user:" + conf.MainConfig.NodeName
		return NewRedisSlot(cache, key), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache mode %q", conf.CacheConfig.Mode)
	}
}

var _ Slot = (*MemorySlot)(nil)
