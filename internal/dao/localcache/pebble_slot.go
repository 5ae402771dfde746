package localcache

import (
	"context"
	"errors"
	"os"

	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"

	"github.com/cockroachdb/pebble"
)

// SlotName 当前用户槽位在 pebble 中的 key
const SlotName = constants.CURRENT_USER_SLOT

// PebbleSlot 基于 pebble 嵌入式 KV 的槽位，进程重启后仍可恢复
type PebbleSlot struct {
	db  *pebble.DB
	key []byte
}

// OpenPebbleSlot 打开（必要时创建）数据目录
func OpenPebbleSlot(path, name string) (*PebbleSlot, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "创建缓存目录 %s 失败", path)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "打开 pebble %s 失败", path)
	}
	return &PebbleSlot{db: db, key: []byte(name)}, nil
}

func (s *PebbleSlot) Load(_ context.Context) ([]byte, bool, error) {
	v, closer, err := s.db.Get(s.key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errorx.Wrap(err, errorx.CodeCacheError, "读取本地缓存失败")
	}
	defer closer.Close()
	// pebble 返回的切片在 closer 关闭后失效
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *PebbleSlot) Save(_ context.Context, value []byte) error {
	if err := s.db.Set(s.key, value, pebble.Sync); err != nil {
		return errorx.Wrap(err, errorx.CodeCacheError, "写入本地缓存失败")
	}
	return nil
}

func (s *PebbleSlot) Clear(_ context.Context) error {
	if err := s.db.Delete(s.key, pebble.Sync); err != nil {
		return errorx.Wrap(err, errorx.CodeCacheError, "清除本地缓存失败")
	}
	return nil
}

// Close 关闭 pebble
func (s *PebbleSlot) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Slot = (*PebbleSlot)(nil)
