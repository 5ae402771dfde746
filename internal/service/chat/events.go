package chat

// EventType 状态变化的种类
type EventType string

const (
	EventUsers    EventType = "users"    // 用户目录新增
	EventMessages EventType = "messages" // 消息日志新增
	EventSessions EventType = "sessions" // 会话列表或当前会话变化
	EventIdentity EventType = "identity" // 登录、注册、登出
)

// Event 一次状态变化通知，只说明"什么变了"，由订阅方自行拉取最新视图
type Event struct {
	Type EventType `json:"type"`
}

// Watch 注册状态变化回调，返回取消函数
// 回调在触发变化的协程中同步执行（可能是存储的投递协程），不能阻塞
func (c *Client) Watch(fn func(Event)) (cancel func()) {
	c.watchMu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = fn
	c.watchMu.Unlock()

	return func() {
		c.watchMu.Lock()
		delete(c.watchers, id)
		c.watchMu.Unlock()
	}
}

// notify 必须在 c.mu 之外调用
func (c *Client) notify(types ...EventType) {
	if len(types) == 0 {
		return
	}
	c.watchMu.Lock()
	fns := make([]func(Event), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.watchMu.Unlock()

	for _, t := range types {
		for _, fn := range fns {
			fn(Event{Type: t})
		}
	}
}
