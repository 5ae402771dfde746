// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"flash_chat_server/internal/handler"
	"flash_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router 路由管理器，持有 Handler 聚合和鉴权所需的当前用户查询
type Router struct {
	handlers      *handler.Handlers
	currentUserID func() string
}

// NewRouter 创建路由管理器
// currentUserID 返回本节点当前登录用户 ID，鉴权中间件用它判断 Token 是否仍然有效
func NewRouter(handlers *handler.Handlers, currentUserID func() string) *Router {
	return &Router{handlers: handlers, currentUserID: currentUserID}
}

// RegisterRoutes 注册所有路由
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公开接口
	rt.RegisterPublicUserRoutes(r.Group("/user"))

	// 需要认证的接口
	authed := r.Group("/")
	authed.Use(middleware.JWTAuth(rt.currentUserID))
	{
		rt.RegisterUserRoutes(authed)
		rt.RegisterContactRoutes(authed)
		rt.RegisterSessionRoutes(authed)
		rt.RegisterMessageRoutes(authed)
		rt.RegisterWebSocketRoutes(authed)
	}
}
