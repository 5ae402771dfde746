package store

import (
	"context"
	"sync"
	"time"

	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/errorx"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 每次轮询最多拉取的行数
	mysqlPollBatch = 500
	// 回看窗口（自增 ID 个数）
	// 自增 ID 在插入时分配、在提交时才可见，并发 put 时较小的 ID 可能晚于较大的 ID 可见；
	// 游标之前窗口内未投递过的行会在后续轮询中补投
	mysqlLookback = 1000
)

// MysqlStore 基于 MySQL 追加日志表的复制存储
// put 追加一行；订阅方以自增 ID 为游标轮询，等价于回放 + 跟随
type MysqlStore struct {
	db        *gorm.DB
	namespace string
	interval  time.Duration

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMysqlStore 创建 MySQL 存储，interval 为轮询间隔
func NewMysqlStore(db *gorm.DB, namespace string, interval time.Duration) *MysqlStore {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &MysqlStore{
		db:        db,
		namespace: namespace,
		interval:  interval,
		quit:      make(chan struct{}),
	}
}

// Put 追加一行 store_record
func (s *MysqlStore) Put(ctx context.Context, collection, key string, value []byte) error {
	rec := model.StoreRecord{
		Collection: collectionName(s.namespace, collection),
		RecordKey:  key,
		Value:      string(value),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return errorx.Wrapf(err, errorx.CodeStoreError, "mysql put %s/%s", collection, key)
	}
	return nil
}

// Subscribe 启动轮询协程
func (s *MysqlStore) Subscribe(ctx context.Context, collection string, fn EntryHandler) error {
	name := collectionName(s.namespace, collection)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		cur := newPollCursor()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			if err := s.pollOnce(ctx, name, cur, fn); err != nil && ctx.Err() == nil {
				zap.L().Warn("mysql 轮询失败", zap.String("collection", name), zap.Error(err))
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			case <-s.quit:
				return
			}
		}
	}()
	zap.L().Info("mysql store subscribed", zap.String("collection", name), zap.Duration("interval", s.interval))
	return nil
}

// pollOnce 先追上游标之后的新行，再补投窗口内迟提交的行
func (s *MysqlStore) pollOnce(ctx context.Context, collection string, cur *pollCursor, fn EntryHandler) error {
	// 一次拉满后立即再拉，直到追上
	for {
		var rows []model.StoreRecord
		err := s.db.WithContext(ctx).
			Where("collection = ? AND id > ?", collection, cur.last).
			Order("id ASC").
			Limit(mysqlPollBatch).
			Find(&rows).Error
		if err != nil {
			return err
		}
		deliverRows(rows, cur, fn)
		cur.prune()
		if len(rows) < mysqlPollBatch {
			break
		}
	}

	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&model.StoreRecord{}).
		Where("collection = ? AND id > ? AND id <= ?", collection, cur.floor(), cur.last).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if missing := cur.missing(ids); len(missing) > 0 {
		var rows []model.StoreRecord
		if err := s.db.WithContext(ctx).Where("id IN ?", missing).Order("id ASC").Find(&rows).Error; err != nil {
			return err
		}
		deliverRows(rows, cur, fn)
	}
	cur.prune()
	return nil
}

func deliverRows(rows []model.StoreRecord, cur *pollCursor, fn EntryHandler) {
	for _, r := range rows {
		fn(r.RecordKey, []byte(r.Value))
		cur.delivered(r.ID)
	}
}

// pollCursor 轮询游标：last 为已投递的最大 ID，seen 记录窗口内已投递的 ID
type pollCursor struct {
	last uint
	seen map[uint]struct{}
}

func newPollCursor() *pollCursor {
	return &pollCursor{seen: make(map[uint]struct{})}
}

// floor 回看窗口下界（不含）
func (c *pollCursor) floor() uint {
	if c.last <= mysqlLookback {
		return 0
	}
	return c.last - mysqlLookback
}

func (c *pollCursor) delivered(id uint) {
	c.seen[id] = struct{}{}
	if id > c.last {
		c.last = id
	}
}

// missing 返回窗口内还没投递过的 ID
func (c *pollCursor) missing(ids []uint) []uint {
	var out []uint
	for _, id := range ids {
		if _, ok := c.seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// prune 丢弃窗口之外的记录
func (c *pollCursor) prune() {
	floor := c.floor()
	for id := range c.seen {
		if id <= floor {
			delete(c.seen, id)
		}
	}
}

// Close 停止轮询协程；数据库连接由调用方关闭
func (s *MysqlStore) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
	return nil
}

var _ Store = (*MysqlStore)(nil)
