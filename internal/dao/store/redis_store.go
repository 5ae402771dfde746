package store

import (
	"context"
	"encoding/json"
	"sync"

	"flash_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisEvent pub/sub 通道上广播的一次 put
type redisEvent struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// RedisStore 基于 Redis Hash + Pub/Sub 的复制存储
// 每个集合是一个 Hash（key -> JSON 记录），写入后在 <集合>:events 通道广播
type RedisStore struct {
	client    *redis.Client
	namespace string

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRedisStore 创建 Redis 存储；client 由调用方负责关闭
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		quit:      make(chan struct{}),
	}
}

func (s *RedisStore) hashKey(collection string) string {
	return collectionName(s.namespace, collection)
}

func (s *RedisStore) channel(collection string) string {
	return collectionName(s.namespace, collection) + ":events"
}

// Put HSET 后 PUBLISH，两条命令放在同一个 MULTI 中
func (s *RedisStore) Put(ctx context.Context, collection, key string, value []byte) error {
	payload, err := json.Marshal(redisEvent{Key: key, Value: value})
	if err != nil {
		return errorx.Wrap(err, errorx.CodeStoreError, "序列化 redis 事件失败")
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.hashKey(collection), key, value)
		pipe.Publish(ctx, s.channel(collection), payload)
		return nil
	})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeStoreError, "redis put %s/%s", collection, key)
	}
	return nil
}

// Subscribe 先订阅通道再回放 Hash，保证两者之间的写入不会丢失（可能重复投递）
func (s *RedisStore) Subscribe(ctx context.Context, collection string, fn EntryHandler) error {
	pubsub := s.client.Subscribe(ctx, s.channel(collection))
	// 等待订阅确认
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return errorx.Wrapf(err, errorx.CodeStoreError, "redis subscribe %s", collection)
	}
	snapshot, err := s.client.HGetAll(ctx, s.hashKey(collection)).Result()
	if err != nil {
		_ = pubsub.Close()
		return errorx.Wrapf(err, errorx.CodeStoreError, "redis hgetall %s", collection)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer pubsub.Close()

		for k, v := range snapshot {
			fn(k, []byte(v))
		}
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev redisEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					zap.L().Warn("丢弃无法解析的 redis 事件",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				fn(ev.Key, ev.Value)
			case <-ctx.Done():
				return
			case <-s.quit:
				return
			}
		}
	}()
	zap.L().Info("redis store subscribed",
		zap.String("collection", s.hashKey(collection)),
		zap.Int("replay", len(snapshot)),
	)
	return nil
}

// Close 停止所有订阅协程，不关闭共享的 Redis 客户端
func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
	return nil
}

var _ Store = (*RedisStore)(nil)
