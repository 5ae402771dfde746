package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterContactRoutes 注册联系人相关路由（需要认证）
func (rt *Router) RegisterContactRoutes(rg *gin.RouterGroup) {
	contactGroup := rg.Group("/contact")
	{
		contactGroup.POST("/add", rt.handlers.Contact.AddContact) // 按用户名添加联系人，可选创建机器人
	}
}
