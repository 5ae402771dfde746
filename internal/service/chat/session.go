package chat

import (
	"context"
	"strings"

	"flash_chat_server/internal/infrastructure/metrics"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// SupportSessionID 当前用户客服会话的 ID，由用户 ID 推导
func SupportSessionID(userID string) string {
	return constants.SUPPORT_SESSION_PREFIX + userID
}

// InboxSessionID 系统账号收件箱中某个发信人会话的 ID
func InboxSessionID(senderID string) string {
	return constants.INBOX_SESSION_PREFIX + senderID
}

func hasParticipant(sessions []model.ChatSession, participantID string) bool {
	for _, s := range sessions {
		if s.ParticipantID == participantID {
			return true
		}
	}
	return false
}

func prepend(sessions []model.ChatSession, s model.ChatSession) []model.ChatSession {
	out := make([]model.ChatSession, 0, len(sessions)+1)
	out = append(out, s)
	return append(out, sessions...)
}

// EnsureSupportSession 普通用户始终有且只有一个与系统账号的客服会话
// 不修改入参，返回新的会话列表
func EnsureSupportSession(sessions []model.ChatSession, current *model.User) []model.ChatSession {
	if current == nil || current.IsSystem() || hasParticipant(sessions, constants.SYSTEM_USER_ID) {
		return sessions
	}
	return prepend(sessions, model.ChatSession{
		ID:            SupportSessionID(current.ID),
		ParticipantID: constants.SYSTEM_USER_ID,
		IsSupport:     true,
	})
}

// InboxSessions 当前用户是系统账号时，为每个给系统账号发过消息的人合成一个会话
// 按消息顺序依次前插，已有会话的发信人跳过
func InboxSessions(sessions []model.ChatSession, current *model.User, messages []model.Message) []model.ChatSession {
	if current == nil || !current.IsSystem() {
		return sessions
	}
	for _, m := range messages {
		if m.ReceiverID != constants.SYSTEM_USER_ID || m.SenderID == constants.SYSTEM_USER_ID {
			continue
		}
		if hasParticipant(sessions, m.SenderID) {
			continue
		}
		sessions = prepend(sessions, model.ChatSession{
			ID:            InboxSessionID(m.SenderID),
			ParticipantID: m.SenderID,
		})
	}
	return sessions
}

// deriveSessionsLocked 重新应用派生规则，返回会话列表是否变化
func (c *Client) deriveSessionsLocked() bool {
	before := len(c.sessions)
	next := EnsureSupportSession(c.sessions, c.current)
	next = InboxSessions(next, c.current, c.messageListLocked())
	c.sessions = next
	return len(next) != before
}

func (c *Client) sessionLocked(id string) (model.ChatSession, bool) {
	for _, s := range c.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return model.ChatSession{}, false
}

// AddContact 按用户名添加联系人并激活与其的会话
// 目录中没有该用户时：createBot 为 false 返回 CodeUserNotExist，由调用方询问是否创建机器人；
// createBot 为 true 则创建一个同名机器人用户写入存储
func (c *Client) AddContact(ctx context.Context, name string, createBot bool) (model.ChatSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ChatSession{}, errorx.New(errorx.CodeInvalidParam, "联系人昵称不能为空")
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return model.ChatSession{}, errorx.ErrNotLoggedIn
	}
	if c.current.NameEquals(name) {
		c.mu.Unlock()
		return model.ChatSession{}, errorx.New(errorx.CodeInvalidParam, "不能添加自己为联系人")
	}
	target, found := c.userByNameLocked(name)
	c.mu.Unlock()

	usersChanged := false
	if !found {
		if !createBot {
			return model.ChatSession{}, errorx.Newf(errorx.CodeUserNotExist, "用户 %s 不存在", name)
		}
		target = model.User{
			ID:       c.opts.NewBotID(),
			Username: name,
			Avatar:   constants.BOT_AVATAR_URL + name,
			Status:   model.StatusOnline,
			IsBot:    true,
		}
		raw, err := target.Encode()
		if err != nil {
			return model.ChatSession{}, errorx.Wrap(err, errorx.CodeServerBusy, "序列化机器人失败")
		}
		if err := c.store.Put(ctx, constants.COLLECTION_USERS, target.ID, raw); err != nil {
			metrics.StoreWriteFailures.WithLabelValues(constants.COLLECTION_USERS).Inc()
			return model.ChatSession{}, errorx.Wrap(err, errorx.CodeStoreError, "写入机器人失败")
		}
		zap.L().Info("bot contact created", zap.String("botId", target.ID), zap.String("username", name))
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return model.ChatSession{}, errorx.ErrNotLoggedIn
	}
	if !found {
		usersChanged = c.mergeUserLocked(target)
	}
	var session model.ChatSession
	existing := false
	for _, s := range c.sessions {
		if s.ParticipantID == target.ID {
			session, existing = s, true
			break
		}
	}
	if !existing {
		session = model.ChatSession{ID: c.opts.NewSessionID(), ParticipantID: target.ID}
		c.sessions = prepend(c.sessions, session)
	}
	c.activeID = session.ID
	c.mu.Unlock()

	if usersChanged {
		c.notify(EventUsers)
	}
	c.notify(EventSessions)
	return session, nil
}

// SelectSession 切换当前会话
func (c *Client) SelectSession(id string) (model.ChatSession, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return model.ChatSession{}, errorx.ErrNotLoggedIn
	}
	s, ok := c.sessionLocked(id)
	if ok {
		c.activeID = id
	}
	c.mu.Unlock()

	if !ok {
		return model.ChatSession{}, errorx.Newf(errorx.CodeNotFound, "会话 %s 不存在", id)
	}
	c.notify(EventSessions)
	return s, nil
}

// Sessions 本地会话列表（最新的在前）
func (c *Client) Sessions() []model.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ChatSession(nil), c.sessions...)
}

// ActiveSessionID 当前会话 ID，没有则为空
func (c *Client) ActiveSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// SessionItem 侧边栏中的一项
type SessionItem struct {
	Session     model.ChatSession
	Participant model.User
	Active      bool
}

// SessionList 侧边栏视图
// 对方尚未同步到目录的会话不展示；search 非空时按用户名做大小写不敏感的子串过滤；
// lastMessage / lastTimestamp 取自两人对话中最新的一条消息
func (c *Client) SessionList(search string) []SessionItem {
	search = strings.ToLower(strings.TrimSpace(search))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return []SessionItem{}
	}
	msgs := c.messageListLocked()
	items := make([]SessionItem, 0, len(c.sessions))
	for _, s := range c.sessions {
		u, ok := c.users[s.ParticipantID]
		if !ok {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Username), search) {
			continue
		}
		if t := Transcript(msgs, c.current.ID, u.ID); len(t) > 0 {
			last := t[len(t)-1]
			s.LastMessage = last.Text
			s.LastTimestamp = last.Timestamp
		}
		items = append(items, SessionItem{Session: s, Participant: u, Active: s.ID == c.activeID})
	}
	return items
}
