// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"flash_chat_server/internal/config"
	"flash_chat_server/internal/handler"
	"flash_chat_server/internal/infrastructure/logger"
	"flash_chat_server/internal/infrastructure/middleware"
	"flash_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 创建 Gin 引擎
// currentUserID 返回本节点当前登录用户 ID，交给鉴权中间件
func Init(handlers *handler.Handlers, currentUserID func() string, conf *config.Config) *gin.Engine {
	// 不使用 gin.Default()，日志和恢复都走 zap
	engine := gin.New()
	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // 前端单独部署
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终止 SSL 时保持关闭
	if conf.MainConfig.TLSRedirect {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	rt := router.NewRouter(handlers, currentUserID)
	rt.RegisterRoutes(engine)

	return engine
}
