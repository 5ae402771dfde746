package middleware

import (
	"net/http"
	"strings"

	"flash_chat_server/pkg/errorx"
	"flash_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// ContextUserID 上下文中保存用户 ID 的 key
const ContextUserID = "user_id"

// JWTAuth JWT 认证中间件
// 验证 Access Token，并要求 Token 中的用户就是本节点当前登录的用户
// currentUserID 返回本节点当前登录用户 ID（未登录为空）
// WebSocket 握手无法携带 Header，允许通过 ?token= 传递
func JWTAuth(currentUserID func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 或查询参数获取 Token
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortUnauthorized(c, "Token 格式错误，请使用 Bearer Token")
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			abortUnauthorized(c, "请先登录")
			return
		}

		// 2. 验证 Token
		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}
		if claims.Subject != "access_token" {
			abortUnauthorized(c, "请使用 Access Token 访问此接口")
			return
		}

		// 3. 节点上已登出或换了用户，旧 Token 失效
		if claims.UserID == "" || claims.UserID != currentUserID() {
			abortUnauthorized(c, "登录状态已变化，请重新登录")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}
