package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaProvider 通过 langchaingo 调用本地 Ollama 模型
type OllamaProvider struct {
	llm  llms.Model
	opts Options
}

// NewOllamaProvider 创建 Ollama 客户端
func NewOllamaProvider(serverURL string, opts Options) (*OllamaProvider, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	clientOpts := []ollama.Option{ollama.WithModel(opts.Model)}
	if serverURL != "" {
		clientOpts = append(clientOpts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaProvider{llm: llm, opts: opts}, nil
}

// Generate 人设作为 system 消息，随后是按顺序的 human/ai 消息
func (p *OllamaProvider) Generate(ctx context.Context, persona string, turns []Turn) (string, error) {
	var callOpts []llms.CallOption
	if p.opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(p.opts.Temperature))
	}
	if p.opts.TopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(p.opts.TopP))
	}
	resp, err := p.llm.GenerateContent(ctx, toLangchainMessages(p.opts.PersonaInstruction(persona), turns), callOpts...)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return cleanReply(resp.Choices[0].Content)
}

func toLangchainMessages(instruction string, turns []Turn) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(turns)+1)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, instruction))
	for _, t := range turns {
		typ := llms.ChatMessageTypeHuman
		if t.Role == RoleModel {
			typ = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(typ, t.Text))
	}
	return msgs
}

var _ Provider = (*OllamaProvider)(nil)
