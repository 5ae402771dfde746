package request

// SendMessageRequest 向当前会话发送消息
type SendMessageRequest struct {
	Text string `json:"text" binding:"required,max=4000"`
}
