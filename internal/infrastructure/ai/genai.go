package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIProvider 基于 Gemini API 的实现
type GenAIProvider struct {
	client *genai.Client
	opts   Options
}

// NewGenAIProvider 创建 Gemini 客户端
func NewGenAIProvider(ctx context.Context, apiKey string, opts Options) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-3-flash-preview"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIProvider{client: client, opts: opts}, nil
}

// Generate 调用 GenerateContent，人设放在 SystemInstruction 中
func (p *GenAIProvider) Generate(ctx context.Context, persona string, turns []Turn) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.opts.Model, toGenAIContents(turns), p.generateConfig(persona))
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	return cleanReply(resp.Text())
}

func (p *GenAIProvider) generateConfig(persona string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.opts.PersonaInstruction(persona), genai.RoleUser),
	}
	if p.opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(p.opts.Temperature))
	}
	if p.opts.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(p.opts.TopP))
	}
	return cfg
}

// toGenAIContents 轮次映射为 Gemini 的 user/model 内容
func toGenAIContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

var _ Provider = (*GenAIProvider)(nil)
