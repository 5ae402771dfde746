// Package model 定义聊天节点的数据模型
// 本文件定义消息模型
package model

import (
	"encoding/json"

	"flash_chat_server/pkg/errorx"
)

// Message 单聊消息
// 由写路径创建一次，之后不可变、从不删除
type Message struct {
	// ID 不透明唯一标识，以存储中的 key 为准
	ID string `json:"id"`

	// SenderID 发送者用户 ID
	SenderID string `json:"senderId"`

	// ReceiverID 接收者用户 ID
	ReceiverID string `json:"receiverId"`

	// Text 消息文本；客服消息已带 "昵称: " 前缀
	Text string `json:"text"`

	// Timestamp 发送方生成的毫秒时间戳，唯一的排序依据
	Timestamp int64 `json:"timestamp"`

	// IsSupportRequest 非系统用户写入客服会话时置位
	IsSupportRequest bool `json:"isSupportRequest,omitempty"`

	// FromName 发送时的发送者昵称
	FromName string `json:"fromName,omitempty"`
}

// Between 消息是否属于 a 与 b 之间的对话（不区分方向）
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// DecodeMessage 在存储边界解析并校验一条消息记录
func DecodeMessage(key string, raw []byte) (Message, error) {
	var m Message
	if key == "" {
		return m, errorx.New(errorx.CodeInvalidParam, "消息记录缺少 key")
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, errorx.Wrapf(err, errorx.CodeInvalidParam, "消息记录 %s 格式错误", key)
	}
	m.ID = key
	if m.SenderID == "" || m.ReceiverID == "" {
		return m, errorx.Newf(errorx.CodeInvalidParam, "消息记录 %s 缺少收发方", key)
	}
	if m.Timestamp <= 0 {
		return m, errorx.Newf(errorx.CodeInvalidParam, "消息记录 %s 缺少时间戳", key)
	}
	return m, nil
}

// Encode 序列化为存储记录
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
