// Package store 定义复制存储适配层
// 复制存储是一个最终一致的广播式键值存储：每次 put 都是独立的 upsert，
// 订阅方至少收到一次已有和后续的每条记录，不保证不同 put 之间的顺序
package store

import (
	"context"
	"errors"
)

// EntryHandler 订阅回调，key 为记录 key，value 为 JSON 记录
// 回调在后端的投递协程中执行，不应阻塞太久
type EntryHandler func(key string, value []byte)

// Store 复制存储接口
// 支持多种实现：ChannelStore (单机)、RedisStore、KafkaStore、MysqlStore
type Store interface {
	// Put 写入（覆盖）一条记录，不等待其他订阅方确认
	Put(ctx context.Context, collection, key string, value []byte) error
	// Subscribe 订阅集合，立即返回；后台协程先回放已有记录，再持续投递新记录，直到 ctx 取消
	Subscribe(ctx context.Context, collection string, fn EntryHandler) error
	// Close 释放后端资源，并等待所有投递协程退出
	Close() error
}

// ErrClosed 存储已关闭
var ErrClosed = errors.New("store: closed")

// collectionName 拼接带命名空间的集合名，如 flash_v1_users
func collectionName(namespace, collection string) string {
	return namespace + collection
}
