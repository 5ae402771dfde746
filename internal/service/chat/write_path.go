package chat

import (
	"context"
	"errors"
	"strings"

	"flash_chat_server/internal/infrastructure/ai"
	"flash_chat_server/internal/infrastructure/metrics"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// SendMessage 向当前会话的对方发送一条消息
// 对方是机器人时，在后台生成回复并以对方身份写入存储；生成失败降级为兜底文案，不影响本次发送的结果
func (c *Client) SendMessage(ctx context.Context, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return model.Message{}, errorx.ErrNotLoggedIn
	}
	sender := *c.current
	session, ok := c.sessionLocked(c.activeID)
	if !ok {
		c.mu.Unlock()
		return model.Message{}, errorx.New(errorx.CodeNoActiveSession, "请先选择会话")
	}
	recipient, ok := c.users[session.ParticipantID]
	c.mu.Unlock()
	if !ok {
		return model.Message{}, errorx.Newf(errorx.CodeUserNotExist, "联系人 %s 尚未同步", session.ParticipantID)
	}

	support := recipient.ID == constants.SYSTEM_USER_ID && !sender.IsSystem()
	msg := model.Message{
		ID:               c.opts.NewMessageID(),
		SenderID:         sender.ID,
		ReceiverID:       recipient.ID,
		Text:             text,
		Timestamp:        c.opts.Now().UnixMilli(),
		IsSupportRequest: support,
		FromName:         sender.Username,
	}
	if support {
		// 系统账号的收件箱靠文本前缀区分来源
		msg.Text = sender.Username + ": " + text
	}
	if err := c.put(ctx, msg); err != nil {
		return model.Message{}, err
	}
	kind := metrics.KindDirect
	if support {
		kind = metrics.KindSupport
	}
	metrics.MessagesSent.WithLabelValues(kind).Inc()

	c.mu.Lock()
	c.mergeMessageLocked(msg)
	var turns []ai.Turn
	if recipient.IsBot {
		// 历史按无序对过滤，不依赖会话 ID；刚发送的消息单独作为最后一轮
		history := Transcript(c.messageListLocked(), sender.ID, recipient.ID)
		filtered := history[:0]
		for _, m := range history {
			if m.ID != msg.ID {
				filtered = append(filtered, m)
			}
		}
		turns = BuildTurns(filtered, sender.ID, text)
	}
	c.mu.Unlock()
	c.notify(EventMessages)

	if recipient.IsBot {
		c.wg.Add(1)
		go c.replyAsBot(sender, recipient, turns)
	}
	return msg, nil
}

// replyAsBot 机器人回复：没有超时也不重试，随 Client 关闭而取消
func (c *Client) replyAsBot(to, bot model.User, turns []ai.Turn) {
	defer c.wg.Done()

	text := c.generateReply(bot, turns)
	reply := model.Message{
		ID:         constants.BOT_MESSAGE_PREFIX + c.opts.NewMessageID(),
		SenderID:   bot.ID,
		ReceiverID: to.ID,
		Text:       text,
		Timestamp:  c.opts.Now().UnixMilli(),
	}
	if err := c.put(c.ctx, reply); err != nil {
		return
	}
	metrics.MessagesSent.WithLabelValues(metrics.KindBotReply).Inc()

	c.mu.Lock()
	added := c.mergeMessageLocked(reply)
	c.mu.Unlock()
	if added {
		c.notify(EventMessages)
	}
}

func (c *Client) generateReply(bot model.User, turns []ai.Turn) string {
	if c.replier == nil {
		metrics.BotReplyFailures.Inc()
		return constants.REPLY_FALLBACK_TEXT
	}
	text, err := c.replier.Generate(c.ctx, bot.Username, turns)
	switch {
	case err == nil:
		return text
	case errors.Is(err, ai.ErrEmptyReply):
		return constants.REPLY_BUSY_TEXT
	default:
		metrics.BotReplyFailures.Inc()
		zap.L().Warn("机器人回复生成失败，使用兜底文案",
			zap.String("botId", bot.ID),
			zap.Error(err),
		)
		return constants.REPLY_FALLBACK_TEXT
	}
}

// put 写入一条消息记录；失败只记日志和指标，不重试
func (c *Client) put(ctx context.Context, m model.Message) error {
	raw, err := m.Encode()
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "序列化消息失败")
	}
	if err := c.store.Put(ctx, constants.COLLECTION_MESSAGES, m.ID, raw); err != nil {
		metrics.StoreWriteFailures.WithLabelValues(constants.COLLECTION_MESSAGES).Inc()
		zap.L().Error("写入消息失败",
			zap.String("messageId", m.ID),
			zap.String("senderId", m.SenderID),
			zap.Error(err),
		)
		return errorx.Wrap(err, errorx.CodeStoreError, "写入消息失败")
	}
	return nil
}
