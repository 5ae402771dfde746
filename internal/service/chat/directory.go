package chat

import (
	"strings"

	"flash_chat_server/internal/infrastructure/metrics"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"

	"go.uber.org/zap"
)

// onUser users 集合的订阅回调
func (c *Client) onUser(key string, raw []byte) {
	u, err := model.DecodeUser(key, raw)
	if err != nil {
		metrics.RecordsDropped.WithLabelValues(constants.COLLECTION_USERS).Inc()
		zap.L().Warn("丢弃非法用户记录", zap.String("key", key), zap.Error(err))
		return
	}

	c.mu.Lock()
	added := c.mergeUserLocked(u)
	c.mu.Unlock()

	if added {
		c.notify(EventUsers)
	}
}

// mergeUserLocked 首次写入为准：同一 ID 的重复投递（包括内容变化的）不覆盖内存中的记录
func (c *Client) mergeUserLocked(u model.User) bool {
	if _, ok := c.users[u.ID]; ok {
		return false
	}
	c.users[u.ID] = u
	c.userOrder = append(c.userOrder, u.ID)
	metrics.ProjectionSize.WithLabelValues(constants.COLLECTION_USERS).Set(float64(len(c.users)))
	return true
}

func (c *Client) userByNameLocked(name string) (model.User, bool) {
	name = strings.TrimSpace(name)
	for _, id := range c.userOrder {
		if u := c.users[id]; u.NameEquals(name) {
			return u, true
		}
	}
	return model.User{}, false
}

// User 按 ID 查找
func (c *Client) User(id string) (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	return u, ok
}

// UserByName 按用户名（大小写不敏感）查找
func (c *Client) UserByName(name string) (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userByNameLocked(name)
}

// Users 目录中的全部用户，按首次出现的顺序
func (c *Client) Users() []model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.User, 0, len(c.userOrder))
	for _, id := range c.userOrder {
		out = append(out, c.users[id])
	}
	return out
}
