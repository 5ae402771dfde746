// Package handler 提供 HTTP 请求处理器
// 本文件处理用户相关的 API 请求
package handler

import (
	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/infrastructure/middleware"
	"flash_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户请求处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Register 注册并登录
// POST /user/register
// 请求体: request.RegisterRequest
// 响应: respond.LoginRespond
func (h *UserHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Register(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Login 用户名密码登录
// POST /user/login
// 请求体: request.LoginRequest
// 响应: respond.LoginRespond
func (h *UserHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Login(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Current 本节点当前登录用户
// GET /user/current
// 页面刷新后前端用它恢复登录态并换取新 Token
func (h *UserHandler) Current(c *gin.Context) {
	data, err := h.userSvc.Current(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Logout 登出
// POST /user/logout
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.userSvc.Logout(c.Request.Context(), c.GetString(middleware.ContextUserID)); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// List 用户目录
// GET /user/list
func (h *UserHandler) List(c *gin.Context) {
	data, err := h.userSvc.GetUserList(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
