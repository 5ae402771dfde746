package respond

// SessionRespond 会话列表中的一项
type SessionRespond struct {
	SessionId     string      `json:"session_id"`
	Participant   UserRespond `json:"participant"`
	LastMessage   string      `json:"last_message,omitempty"`
	LastTimestamp int64       `json:"last_timestamp,omitempty"`
	IsSupport     bool        `json:"is_support"`
	Active        bool        `json:"active"`
}
