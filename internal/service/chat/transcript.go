package chat

import (
	"sort"

	"flash_chat_server/internal/infrastructure/ai"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/errorx"
)

// Transcript a 与 b 之间的全部消息（不分方向），按时间戳升序，时间戳相同按 ID
func Transcript(messages []model.Message, a, b string) []model.Message {
	out := make([]model.Message, 0)
	for _, m := range messages {
		if m.Between(a, b) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// BuildTurns 将对话历史映射为回复生成的轮次，并追加刚发送的文本
// self 发的是 user，对方发的是 model
func BuildTurns(history []model.Message, self, text string) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history)+1)
	for _, m := range history {
		role := ai.RoleModel
		if m.SenderID == self {
			role = ai.RoleUser
		}
		turns = append(turns, ai.Turn{Role: role, Text: m.Text})
	}
	return append(turns, ai.Turn{Role: ai.RoleUser, Text: text})
}

// Conversation 当前会话的完整视图
type Conversation struct {
	Session     model.ChatSession
	Participant model.User
	Messages    []model.Message
}

// ActiveConversation 当前会话、对方用户和两人的完整对话
func (c *Client) ActiveConversation() (Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Conversation{}, errorx.ErrNotLoggedIn
	}
	s, ok := c.sessionLocked(c.activeID)
	if !ok {
		return Conversation{}, errorx.New(errorx.CodeNoActiveSession, "请先选择会话")
	}
	u, ok := c.users[s.ParticipantID]
	if !ok {
		return Conversation{}, errorx.Newf(errorx.CodeUserNotExist, "联系人 %s 尚未同步", s.ParticipantID)
	}
	return Conversation{
		Session:     s,
		Participant: u,
		Messages:    Transcript(c.messageListLocked(), c.current.ID, u.ID),
	}, nil
}
