package chat

import (
	"flash_chat_server/internal/infrastructure/metrics"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"

	"go.uber.org/zap"
)

// onMessage messages 集合的订阅回调
func (c *Client) onMessage(key string, raw []byte) {
	m, err := model.DecodeMessage(key, raw)
	if err != nil {
		metrics.RecordsDropped.WithLabelValues(constants.COLLECTION_MESSAGES).Inc()
		zap.L().Warn("丢弃非法消息记录", zap.String("key", key), zap.Error(err))
		return
	}

	c.mu.Lock()
	added := c.mergeMessageLocked(m)
	sessionsChanged := false
	if added {
		sessionsChanged = c.deriveSessionsLocked()
	}
	c.mu.Unlock()

	if added {
		c.notify(EventMessages)
	}
	if sessionsChanged {
		c.notify(EventSessions)
	}
}

// mergeMessageLocked 与用户目录相同，首次写入为准
func (c *Client) mergeMessageLocked(m model.Message) bool {
	if _, ok := c.messages[m.ID]; ok {
		return false
	}
	c.messages[m.ID] = m
	c.messageOrder = append(c.messageOrder, m.ID)
	metrics.ProjectionSize.WithLabelValues(constants.COLLECTION_MESSAGES).Set(float64(len(c.messages)))
	return true
}

func (c *Client) messageListLocked() []model.Message {
	out := make([]model.Message, 0, len(c.messageOrder))
	for _, id := range c.messageOrder {
		out = append(out, c.messages[id])
	}
	return out
}

// Messages 消息日志中的全部消息，按首次出现的顺序
func (c *Client) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messageListLocked()
}
