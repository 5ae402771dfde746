package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// recorder 收集订阅回调
type recorder struct {
	mu   sync.Mutex
	keys []string
	vals map[string]string
}

func newRecorder() *recorder {
	return &recorder{vals: make(map[string]string)}
}

func (r *recorder) handle(key string, value []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.vals[key] = string(value)
}

func (r *recorder) snapshot() ([]string, map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vals := make(map[string]string, len(r.vals))
	for k, v := range r.vals {
		vals[k] = v
	}
	return append([]string(nil), r.keys...), vals
}

func TestChannelStore_ReplayThenLive(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "users", "u1", []byte(`{"username":"ann"}`)))
	require.NoError(t, s.Put(ctx, "users", "u2", []byte(`{"username":"bob"}`)))

	rec := newRecorder()
	require.NoError(t, s.Subscribe(ctx, "users", rec.handle))

	require.NoError(t, s.Put(ctx, "users", "u3", []byte(`{"username":"cat"}`)))

	require.Eventually(t, func() bool {
		keys, _ := rec.snapshot()
		return len(keys) == 3
	}, time.Second, 5*time.Millisecond)

	keys, vals := rec.snapshot()
	assert.Equal(t, []string{"u1", "u2", "u3"}, keys)
	assert.Equal(t, `{"username":"cat"}`, vals["u3"])
}

func TestChannelStore_CollectionsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	defer s.Close()
	ctx := context.Background()

	users, messages := newRecorder(), newRecorder()
	require.NoError(t, s.Subscribe(ctx, "users", users.handle))
	require.NoError(t, s.Subscribe(ctx, "messages", messages.handle))

	require.NoError(t, s.Put(ctx, "messages", "m1", []byte(`{}`)))

	require.Eventually(t, func() bool {
		keys, _ := messages.snapshot()
		return len(keys) == 1
	}, time.Second, 5*time.Millisecond)
	keys, _ := users.snapshot()
	assert.Empty(t, keys)
}

func TestChannelStore_UpsertOverwrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "users", "u1", []byte("v1")))
	require.NoError(t, s.Put(ctx, "users", "u1", []byte("v2")))

	// 新订阅者只回放最新值
	rec := newRecorder()
	require.NoError(t, s.Subscribe(ctx, "users", rec.handle))
	require.Eventually(t, func() bool {
		keys, _ := rec.snapshot()
		return len(keys) == 1
	}, time.Second, 5*time.Millisecond)
	_, vals := rec.snapshot()
	assert.Equal(t, "v2", vals["u1"])
}

func TestChannelStore_PutDoesNotAliasCallerBuffer(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	defer s.Close()
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, s.Put(ctx, "users", "u1", buf))
	copy(buf, "mutated!")

	rec := newRecorder()
	require.NoError(t, s.Subscribe(ctx, "users", rec.handle))
	require.Eventually(t, func() bool {
		_, vals := rec.snapshot()
		return vals["u1"] == "original"
	}, time.Second, 5*time.Millisecond)
}

func TestChannelStore_CancelledSubscriberDoesNotBlockPut(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	defer s.Close()

	subCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Subscribe(subCtx, "messages", func(string, []byte) {}))
	cancel()

	// 超过缓冲区大小的写入也不会阻塞
	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	for i := 0; i < 500; i++ {
		require.NoError(t, s.Put(ctx, "messages", fmt.Sprintf("m%d", i), []byte("{}")))
	}
}

func TestChannelStore_ConcurrentPutsDeliverEveryKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	defer s.Close()
	ctx := context.Background()

	rec := newRecorder()
	require.NoError(t, s.Subscribe(ctx, "messages", rec.handle))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = s.Put(ctx, "messages", fmt.Sprintf("w%d-%d", w, i), []byte("{}"))
			}
		}(w)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		_, vals := rec.snapshot()
		return len(vals) == 200
	}, 2*time.Second, 5*time.Millisecond)
}

func TestChannelStore_Closed(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewChannelStore()
	require.NoError(t, s.Subscribe(context.Background(), "users", func(string, []byte) {}))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put(context.Background(), "users", "u1", nil), ErrClosed)
	assert.ErrorIs(t, s.Subscribe(context.Background(), "users", func(string, []byte) {}), ErrClosed)
}
