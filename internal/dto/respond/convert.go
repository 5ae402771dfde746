package respond

import "flash_chat_server/internal/model"

// FromUser 去掉密码等内部字段
func FromUser(u model.User) UserRespond {
	return UserRespond{
		UserId:     u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Status:     u.Status,
		IsBot:      u.IsBot,
		IsOfficial: u.IsOfficial,
	}
}

// FromMessage 消息转换
func FromMessage(m model.Message) MessageRespond {
	return MessageRespond{
		MessageId:        m.ID,
		SenderId:         m.SenderID,
		ReceiverId:       m.ReceiverID,
		Text:             m.Text,
		Timestamp:        m.Timestamp,
		IsSupportRequest: m.IsSupportRequest,
		FromName:         m.FromName,
	}
}

// FromMessages 批量转换，空列表返回 [] 而不是 null
func FromMessages(ms []model.Message) []MessageRespond {
	out := make([]MessageRespond, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromMessage(m))
	}
	return out
}
