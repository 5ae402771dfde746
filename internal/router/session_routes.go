package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes 注册会话相关路由（需要认证）
func (rt *Router) RegisterSessionRoutes(rg *gin.RouterGroup) {
	sessionGroup := rg.Group("/session")
	{
		sessionGroup.GET("/list", rt.handlers.Session.List)      // 侧边栏会话列表，支持 ?search=
		sessionGroup.POST("/select", rt.handlers.Session.Select) // 切换当前会话
	}
}
