package request

// RegisterRequest 用户注册请求
// 使用位置:
//   - internal/handler/user_handler.go: Register
//   - internal/service/user/service.go: Register
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=32"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 用户名密码登录请求
// 用户名大小写不敏感，密码精确匹配
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
