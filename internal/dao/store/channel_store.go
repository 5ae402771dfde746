package store

import (
	"context"
	"sync"

	"flash_chat_server/pkg/constants"

	"go.uber.org/zap"
)

type entry struct {
	key   string
	value []byte
}

// subscriber 单个订阅者的投递队列
type subscriber struct {
	ch   chan entry
	done chan struct{} // 订阅结束时关闭，防止 Put 阻塞在已退出的订阅者上
}

type channelCollection struct {
	entries map[string][]byte
	order   []string // 首次写入顺序，回放时保持稳定
	subs    map[*subscriber]struct{}
}

// ChannelStore 单机模式的进程内复制存储
// 不依赖外部组件，适合单节点部署、开发环境和测试
type ChannelStore struct {
	mu          sync.Mutex
	collections map[string]*channelCollection
	quit        chan struct{}
	closed      bool
	wg          sync.WaitGroup
}

// NewChannelStore 创建进程内存储
func NewChannelStore() *ChannelStore {
	return &ChannelStore{
		collections: make(map[string]*channelCollection),
		quit:        make(chan struct{}),
	}
}

func (s *ChannelStore) collection(name string) *channelCollection {
	col, ok := s.collections[name]
	if !ok {
		col = &channelCollection{
			entries: make(map[string][]byte),
			subs:    make(map[*subscriber]struct{}),
		}
		s.collections[name] = col
	}
	return col
}

// Put 写入记录并广播给当前所有订阅者
// 同一个调用方连续 Put 的记录，每个订阅者按相同顺序收到
func (s *ChannelStore) Put(ctx context.Context, collection, key string, value []byte) error {
	v := append([]byte(nil), value...)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	col := s.collection(collection)
	if _, ok := col.entries[key]; !ok {
		col.order = append(col.order, key)
	}
	col.entries[key] = v
	subs := make([]*subscriber, 0, len(col.subs))
	for sub := range col.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- entry{key: key, value: v}:
		case <-sub.done:
		case <-s.quit:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe 注册订阅者：先回放快照，再投递后续写入
func (s *ChannelStore) Subscribe(ctx context.Context, collection string, fn EntryHandler) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	col := s.collection(collection)
	snapshot := make([]entry, 0, len(col.order))
	for _, k := range col.order {
		snapshot = append(snapshot, entry{key: k, value: col.entries[k]})
	}
	sub := &subscriber{
		ch:   make(chan entry, constants.CHANNEL_SIZE),
		done: make(chan struct{}),
	}
	col.subs[sub] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.unsubscribe(collection, sub)

		for _, e := range snapshot {
			select {
			case <-ctx.Done():
				return
			case <-s.quit:
				return
			default:
			}
			fn(e.key, e.value)
		}
		for {
			select {
			case e := <-sub.ch:
				fn(e.key, e.value)
			case <-ctx.Done():
				return
			case <-s.quit:
				return
			}
		}
	}()
	zap.L().Debug("channel store subscribed",
		zap.String("collection", collection),
		zap.Int("replay", len(snapshot)),
	)
	return nil
}

func (s *ChannelStore) unsubscribe(collection string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[collection]; ok {
		delete(col.subs, sub)
	}
	close(sub.done)
}

// Close 停止所有投递协程
func (s *ChannelStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

var _ Store = (*ChannelStore)(nil)
