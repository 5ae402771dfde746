package chat

import (
	"context"
	"encoding/json"
	"strings"

	"flash_chat_server/internal/infrastructure/metrics"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Restore 从本地缓存恢复上次登录的用户，不访问复制存储
// 缓存内容无法解析时清除缓存，按未登录处理
func (c *Client) Restore(ctx context.Context) (*model.User, error) {
	raw, ok, err := c.slot.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var cached struct {
		ID string `json:"id"`
	}
	var u model.User
	err = json.Unmarshal(raw, &cached)
	if err == nil {
		u, err = model.DecodeUser(cached.ID, raw)
	}
	if err != nil {
		zap.L().Warn("本地缓存的用户无效，已清除", zap.Error(err))
		if err := c.slot.Clear(ctx); err != nil {
			zap.L().Error("清除本地缓存失败", zap.Error(err))
		}
		return nil, nil
	}

	c.mu.Lock()
	c.setCurrentLocked(u)
	c.mu.Unlock()
	c.notify(EventIdentity, EventSessions)

	zap.L().Info("restored cached user", zap.String("userId", u.ID), zap.String("username", u.Username))
	return &u, nil
}

// Register 注册新用户并设为当前用户
// 用户名或密码为空、用户名（大小写不敏感）等于系统保留名或已在目录中存在时拒绝，不产生任何状态变化
func (c *Client) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, errorx.New(errorx.CodeInvalidParam, "用户名不能为空")
	}
	// 空密码的账号永远无法登录
	if password == "" {
		return model.User{}, errorx.New(errorx.CodeInvalidParam, "密码不能为空")
	}
	if strings.EqualFold(username, constants.SYSTEM_USER_NAME) {
		return model.User{}, errorx.Newf(errorx.CodeUsernameReserved, "用户名 %s 为系统保留", username)
	}

	c.mu.Lock()
	_, exists := c.userByNameLocked(username)
	c.mu.Unlock()
	if exists {
		return model.User{}, errorx.Newf(errorx.CodeUserExist, "用户名 %s 已被占用", username)
	}

	u := model.User{
		ID:       c.opts.NewUserID(),
		Username: username,
		Password: password,
		Avatar:   constants.USER_AVATAR_URL + username,
		Status:   model.StatusOnline,
	}
	raw, err := u.Encode()
	if err != nil {
		return model.User{}, errorx.Wrap(err, errorx.CodeServerBusy, "序列化用户失败")
	}
	if err := c.store.Put(ctx, constants.COLLECTION_USERS, u.ID, raw); err != nil {
		metrics.StoreWriteFailures.WithLabelValues(constants.COLLECTION_USERS).Inc()
		return model.User{}, errorx.Wrap(err, errorx.CodeStoreError, "写入用户失败")
	}

	c.mu.Lock()
	c.mergeUserLocked(u)
	c.setCurrentLocked(u)
	c.mu.Unlock()

	c.persistCurrent(ctx, u)
	c.notify(EventUsers, EventIdentity, EventSessions)
	zap.L().Info("user registered", zap.String("userId", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login 用户名大小写不敏感、密码精确匹配
// 用户不存在、尚未同步到本地或密码错误统一返回 ErrInvalidCredentials
func (c *Client) Login(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)

	c.mu.Lock()
	var (
		found model.User
		ok    bool
	)
	for _, id := range c.userOrder {
		u := c.users[id]
		// 机器人和未配置密码的系统账号没有密码，不可登录
		if u.Password != "" && u.NameEquals(username) && u.Password == password {
			found, ok = u, true
			break
		}
	}
	if ok {
		c.setCurrentLocked(found)
	}
	c.mu.Unlock()

	if !ok {
		return model.User{}, errorx.ErrInvalidCredentials
	}
	c.persistCurrent(ctx, found)
	c.notify(EventIdentity, EventSessions)
	zap.L().Info("user logged in", zap.String("userId", found.ID))
	return found, nil
}

// Logout 清除当前用户、本地会话和缓存，不影响复制存储
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.sessions = nil
	c.activeID = ""
	c.mu.Unlock()

	c.notify(EventIdentity, EventSessions)
	if err := c.slot.Clear(ctx); err != nil {
		return err
	}
	return nil
}

// Current 当前登录用户，未登录返回 nil
func (c *Client) Current() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	u := *c.current
	return &u
}

// setCurrentLocked 切换当前用户；换了人则重置会话
func (c *Client) setCurrentLocked(u model.User) {
	if c.current == nil || c.current.ID != u.ID {
		c.sessions = nil
		c.activeID = ""
	}
	c.current = &u
	c.deriveSessionsLocked()
}

// persistCurrent 写本地缓存；失败只记日志，不影响登录结果
func (c *Client) persistCurrent(ctx context.Context, u model.User) {
	raw, err := u.Encode()
	if err == nil {
		err = c.slot.Save(ctx, raw)
	}
	if err != nil {
		zap.L().Error("保存当前用户到本地缓存失败", zap.String("userId", u.ID), zap.Error(err))
	}
}
