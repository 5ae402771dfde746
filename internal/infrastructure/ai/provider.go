// Package ai 封装机器人联系人的回复生成
// 调用方只看到 Provider 接口：给定人设昵称和对话轮次，返回一段回复文本
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flash_chat_server/internal/config"
)

// Role 对话轮次的角色
type Role string

const (
	RoleUser  Role = "user"  // 当前用户说的话
	RoleModel Role = "model" // 机器人说的话
)

// Turn 一轮对话
type Turn struct {
	Role Role
	Text string
}

// Provider 回复生成服务
type Provider interface {
	// Generate 以 persona 的身份，根据按时间排列的 turns 生成下一句回复
	Generate(ctx context.Context, persona string, turns []Turn) (string, error)
}

// ErrEmptyReply 模型正常返回但没有文本
var ErrEmptyReply = errors.New("ai: empty reply")

const defaultPersonaPrompt = "You are %s, a real person using the \"%s\" messaging app. " +
	"Your goal is to have a natural, brief, and engaging conversation. " +
	"Don't mention you are an AI. Use emojis occasionally. Keep responses under 2 sentences."

// Options 各实现共用的生成参数
type Options struct {
	Model        string
	Temperature  float64
	TopP         float64
	AppName      string
	SystemPrompt string // 含一个 %s（联系人昵称）；为空用默认人设
}

// OptionsFromConfig 从 aiConfig 读取生成参数
func OptionsFromConfig(conf config.AIConfig) Options {
	return Options{
		Model:        conf.Model,
		Temperature:  conf.Temperature,
		TopP:         conf.TopP,
		AppName:      conf.AppName,
		SystemPrompt: conf.SystemPrompt,
	}
}

// PersonaInstruction 生成系统提示
func (o Options) PersonaInstruction(persona string) string {
	if o.SystemPrompt != "" {
		return fmt.Sprintf(o.SystemPrompt, persona)
	}
	app := o.AppName
	if app == "" {
		app = "Flash"
	}
	return fmt.Sprintf(defaultPersonaPrompt, persona, app)
}

// cleanReply 去掉首尾空白，空文本返回 ErrEmptyReply
func cleanReply(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// New 根据 aiConfig.provider 创建 Provider，并按配置套上限流
func New(ctx context.Context, conf config.AIConfig) (Provider, error) {
	opts := OptionsFromConfig(conf)
	var (
		p   Provider
		err error
	)
	switch conf.Provider {
	case "genai", "":
		p, err = NewGenAIProvider(ctx, conf.APIKey, opts)
	case "ollama":
		p, err = NewOllamaProvider(conf.ServerURL, opts)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", conf.Provider)
	}
	if err != nil {
		return nil, err
	}
	if conf.RatePerMin > 0 {
		p = NewRateLimited(p, conf.RatePerMin, conf.RateBurst)
	}
	return p, nil
}
