package request

// AddContactRequest 按用户名添加联系人
// 用户不存在时 create_bot 为 true 则创建同名机器人
type AddContactRequest struct {
	Name      string `json:"name" binding:"required,max=32"`
	CreateBot bool   `json:"create_bot"`
}
