package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/message")
	{
		messageGroup.GET("/transcript", rt.handlers.Message.Transcript) // 当前会话的对话记录
		messageGroup.POST("/send", rt.handlers.Message.Send)            // 发送到当前会话
	}
}
