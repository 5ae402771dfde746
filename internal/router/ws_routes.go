package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册状态推送连接（需要认证）
// 请求示例: ws://host:port/ws?token=<access_token>
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", rt.handlers.Ws.Connect)
}
