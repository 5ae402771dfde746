package user

import (
	"context"

	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/dto/respond"
	"flash_chat_server/internal/model"
	"flash_chat_server/internal/service/chat"
	"flash_chat_server/pkg/errorx"
	"flash_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
)

// userService 用户业务逻辑实现
// 通过构造函数注入聊天节点核心
type userService struct {
	client *chat.Client
}

// NewUserService 构造函数
func NewUserService(client *chat.Client) *userService {
	return &userService{client: client}
}

// loginRespond 签发 Access Token 并组装响应
func (u *userService) loginRespond(user model.User) (*respond.LoginRespond, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.LoginRespond{
		User:        respond.FromUser(user),
		AccessToken: accessToken,
	}, nil
}

// Register 注册
func (u *userService) Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	user, err := u.client.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return u.loginRespond(user)
}

// Login 登录
func (u *userService) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := u.client.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return u.loginRespond(user)
}

// Current 当前登录用户；页面刷新后前端用它换取新的 Token
func (u *userService) Current(_ context.Context) (*respond.LoginRespond, error) {
	user := u.client.Current()
	if user == nil {
		return nil, errorx.ErrNotLoggedIn
	}
	return u.loginRespond(*user)
}

// Logout 登出；只允许当前用户登出自己
func (u *userService) Logout(ctx context.Context, userId string) error {
	if cur := u.client.Current(); cur == nil || cur.ID != userId {
		return errorx.ErrNotLoggedIn
	}
	if err := u.client.Logout(ctx); err != nil {
		zap.L().Error("登出时清除本地缓存失败", zap.String("userId", userId), zap.Error(err))
		return err
	}
	return nil
}

// GetUserList 用户目录
func (u *userService) GetUserList(_ context.Context) ([]respond.UserRespond, error) {
	users := u.client.Users()
	rsp := make([]respond.UserRespond, 0, len(users))
	for _, user := range users {
		rsp = append(rsp, respond.FromUser(user))
	}
	return rsp, nil
}

// CurrentUserID 当前登录用户 ID，未登录为空
func (u *userService) CurrentUserID() string {
	if cur := u.client.Current(); cur != nil {
		return cur.ID
	}
	return ""
}
