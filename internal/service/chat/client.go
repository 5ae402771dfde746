// Package chat 实现聊天节点的核心状态
// Client 持有一个本地观察者（当前登录用户）的全部视图状态：
// 用户目录、消息日志、会话列表和当前会话，并把它们与复制存储保持同步
//
// 所有存储回调和用户操作都是在同一把锁下完成的离散"回合"，
// 持锁期间从不调用存储；存储只在锁外被调用
package chat

import (
	"context"
	"sync"
	"time"

	"flash_chat_server/internal/dao/localcache"
	"flash_chat_server/internal/dao/store"
	"flash_chat_server/internal/infrastructure/ai"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"
	"flash_chat_server/pkg/util/random"
	"flash_chat_server/pkg/util/snowflake"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options Client 的可选依赖，零值字段使用默认实现
type Options struct {
	// SystemPassword 官方系统账号的登录密码，为空则系统账号不可登录
	SystemPassword string

	Now          func() time.Time
	NewUserID    func() string
	NewBotID     func() string
	NewMessageID func() string
	NewSessionID func() string
}

func (o *Options) setDefaults() {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewUserID == nil {
		o.NewUserID = func() string { return "U" + random.GetNowAndLenRandomString(11) }
	}
	if o.NewBotID == nil {
		o.NewBotID = func() string { return constants.BOT_ID_PREFIX + random.GetLenRandomString(5) }
	}
	if o.NewMessageID == nil {
		o.NewMessageID = snowflake.GenerateIDString
	}
	if o.NewSessionID == nil {
		o.NewSessionID = uuid.NewString
	}
}

// Client 聊天节点核心
type Client struct {
	store   store.Store
	slot    localcache.Slot
	replier ai.Provider
	opts    Options

	mu           sync.Mutex
	users        map[string]model.User
	userOrder    []string
	messages     map[string]model.Message
	messageOrder []string
	current      *model.User
	sessions     []model.ChatSession
	activeID     string
	started      bool

	watchMu   sync.Mutex
	watchers  map[uint64]func(Event)
	nextWatch uint64

	// ctx 跟随 Client 生命周期，订阅和机器人回复都挂在它上面
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient 创建 Client；replier 为 nil 时机器人总是回复兜底文案
func NewClient(st store.Store, slot localcache.Slot, replier ai.Provider, opts Options) *Client {
	opts.setDefaults()
	if slot == nil {
		slot = localcache.NewMemorySlot()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		store:    st,
		slot:     slot,
		replier:  replier,
		opts:     opts,
		users:    make(map[string]model.User),
		messages: make(map[string]model.Message),
		watchers: make(map[uint64]func(Event)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 订阅 users / messages 两个集合，随后无条件重写系统账号记录（自愈）
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if err := c.store.Subscribe(c.ctx, constants.COLLECTION_USERS, c.onUser); err != nil {
		return errorx.Wrap(err, errorx.CodeStoreError, "订阅用户集合失败")
	}
	if err := c.store.Subscribe(c.ctx, constants.COLLECTION_MESSAGES, c.onMessage); err != nil {
		return errorx.Wrap(err, errorx.CodeStoreError, "订阅消息集合失败")
	}

	sys := model.SystemUser(c.opts.SystemPassword)
	raw, err := sys.Encode()
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "序列化系统账号失败")
	}
	if err := c.store.Put(ctx, constants.COLLECTION_USERS, sys.ID, raw); err != nil {
		return errorx.Wrap(err, errorx.CodeStoreError, "写入系统账号失败")
	}
	zap.L().Info("chat client started", zap.Bool("systemLoginEnabled", sys.Password != ""))
	return nil
}

// Close 取消订阅并等待进行中的机器人回复结束
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

// Wait 等待进行中的机器人回复结束（不取消）
func (c *Client) Wait() {
	c.wg.Wait()
}
