package respond

// MessageRespond 单条消息
type MessageRespond struct {
	MessageId        string `json:"message_id"`
	SenderId         string `json:"sender_id"`
	ReceiverId       string `json:"receiver_id"`
	Text             string `json:"text"`
	Timestamp        int64  `json:"timestamp"`
	IsSupportRequest bool   `json:"is_support_request,omitempty"`
	FromName         string `json:"from_name,omitempty"`
}

// TranscriptRespond 当前会话的完整对话
type TranscriptRespond struct {
	SessionId   string           `json:"session_id"`
	Participant UserRespond      `json:"participant"`
	Messages    []MessageRespond `json:"messages"`
}
