// Package model 定义聊天节点的数据模型
// 本文件定义会话模型
package model

// ChatSession 会话（对话线程）
// 永远是两方会话，按对方用户 ID 区分；只是本地视图状态，不参与复制
type ChatSession struct {
	// ID 会话标识；客服和收件箱会话的 ID 由用户 ID 推导，保证重复推导幂等
	ID string `json:"id"`

	// ParticipantID 对方用户 ID
	ParticipantID string `json:"participantId"`

	// LastMessage 最新消息摘要（展示缓存，不保证填充）
	LastMessage string `json:"lastMessage,omitempty"`

	// LastTimestamp 最新消息时间（展示缓存，不保证填充）
	LastTimestamp int64 `json:"lastTimestamp,omitempty"`

	// IsSupport 是否为客服会话
	IsSupport bool `json:"isSupport,omitempty"`
}
