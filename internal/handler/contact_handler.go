package handler

import (
	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// ContactHandler 联系人请求处理器
type ContactHandler struct {
	contactSvc service.ContactService
}

// NewContactHandler 创建联系人处理器实例
func NewContactHandler(contactSvc service.ContactService) *ContactHandler {
	return &ContactHandler{contactSvc: contactSvc}
}

// AddContact 添加联系人
// POST /contact/add
// 请求体: request.AddContactRequest
// 响应: respond.SessionRespond（新会话已被激活）
func (h *ContactHandler) AddContact(c *gin.Context) {
	var req request.AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.contactSvc.AddContact(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
