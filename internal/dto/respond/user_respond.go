package respond

// UserRespond 对外展示的用户信息（不含密码）
type UserRespond struct {
	UserId     string `json:"user_id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	Status     string `json:"status"`
	IsBot      bool   `json:"is_bot"`
	IsOfficial bool   `json:"is_official"`
}

// LoginRespond 注册 / 登录 / 恢复登录的响应
type LoginRespond struct {
	User        UserRespond `json:"user"`
	AccessToken string      `json:"access_token"`
}
