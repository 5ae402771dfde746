package request

// SelectSessionRequest 切换当前会话
type SelectSessionRequest struct {
	SessionId string `json:"session_id" binding:"required"`
}

// SessionListRequest 会话列表查询参数
type SessionListRequest struct {
	Search string `form:"search"`
}
