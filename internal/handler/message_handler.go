package handler

import (
	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	messageSvc service.MessageService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(messageSvc service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// Send 向当前会话发送消息
// POST /message/send
// 请求体: request.SendMessageRequest
// 响应: respond.MessageRespond
// 对方是机器人时回复异步写入，前端通过 /ws 的 messages 事件得知
func (h *MessageHandler) Send(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.messageSvc.SendMessage(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Transcript 当前会话的对话记录
// GET /message/transcript
func (h *MessageHandler) Transcript(c *gin.Context) {
	data, err := h.messageSvc.GetTranscript(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
