package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterPublicUserRoutes 注册无需认证的用户路由
func (rt *Router) RegisterPublicUserRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", rt.handlers.User.Register) // 注册并登录
	rg.POST("/login", rt.handlers.User.Login)       // 用户名密码登录
	rg.GET("/current", rt.handlers.User.Current)    // 恢复登录态
}

// RegisterUserRoutes 注册用户相关路由（需要认证）
func (rt *Router) RegisterUserRoutes(rg *gin.RouterGroup) {
	userGroup := rg.Group("/user")
	{
		userGroup.POST("/logout", rt.handlers.User.Logout)
		userGroup.GET("/list", rt.handlers.User.List)
	}
}
