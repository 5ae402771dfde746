// Package model 定义聊天节点的数据模型
// 本文件定义用户模型，用户记录在复制存储中以 JSON 形式广播
package model

import (
	"encoding/json"
	"strings"

	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"
)

// 在线状态
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User 用户
// 注册或按需创建机器人时产生，从不删除；修改只能整条重新 put
type User struct {
	// ID 不透明且稳定的唯一标识，以存储中的 key 为准
	ID string `json:"id"`

	// Username 显示名，在用户目录中大小写不敏感唯一
	Username string `json:"username"`

	// Password 明文密码（与原系统一致，随公开数据复制）
	// 机器人和系统账号没有密码
	Password string `json:"password,omitempty"`

	// Avatar 头像 URL
	Avatar string `json:"avatar"`

	// Status 在线状态：online | offline
	Status string `json:"status"`

	// IsBot 由 AI 托管回复的联系人
	IsBot bool `json:"isBot,omitempty"`

	// IsOfficial 官方系统账号（单例）
	IsOfficial bool `json:"isOfficial,omitempty"`
}

// IsSystem 是否为官方系统账号
func (u User) IsSystem() bool {
	return u.ID == constants.SYSTEM_USER_ID
}

// NameEquals 用户名大小写不敏感比较
func (u User) NameEquals(name string) bool {
	return strings.EqualFold(u.Username, name)
}

// Public 返回去掉密码的副本，用于对外展示
func (u User) Public() User {
	u.Password = ""
	return u
}

// SystemUser 构造官方系统账号记录
// password 为空时系统账号无法登录
func SystemUser(password string) User {
	return User{
		ID:         constants.SYSTEM_USER_ID,
		Username:   constants.SYSTEM_USER_NAME,
		Password:   password,
		Avatar:     constants.SYSTEM_AVATAR,
		Status:     StatusOnline,
		IsOfficial: true,
	}
}

// DecodeUser 在存储边界解析并校验一条用户记录
// key 覆盖记录内的 id；缺少用户名的记录视为非法
func DecodeUser(key string, raw []byte) (User, error) {
	var u User
	if key == "" {
		return u, errorx.New(errorx.CodeInvalidParam, "用户记录缺少 key")
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return u, errorx.Wrapf(err, errorx.CodeInvalidParam, "用户记录 %s 格式错误", key)
	}
	u.ID = key
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return u, errorx.Newf(errorx.CodeInvalidParam, "用户记录 %s 缺少 username", key)
	}
	if u.Status != StatusOnline {
		u.Status = StatusOffline
	}
	return u, nil
}

// Encode 序列化为存储记录
func (u User) Encode() ([]byte, error) {
	return json.Marshal(u)
}
