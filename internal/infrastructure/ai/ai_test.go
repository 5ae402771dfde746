package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// fakeModel 记录请求并返回固定结果的 llms.Model
type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

var sampleTurns = []Turn{
	{Role: RoleUser, Text: "hey"},
	{Role: RoleModel, Text: "hi there 👋"},
	{Role: RoleUser, Text: "how are you?"},
}

func TestPersonaInstruction(t *testing.T) {
	got := Options{AppName: "Flash"}.PersonaInstruction("Bob")
	assert.Contains(t, got, "You are Bob, a real person using the \"Flash\" messaging app.")
	assert.Contains(t, got, "Keep responses under 2 sentences.")

	got = Options{}.PersonaInstruction("Bob")
	assert.Contains(t, got, "\"Flash\"")

	got = Options{SystemPrompt: "Pretend to be %s."}.PersonaInstruction("Eve")
	assert.Equal(t, "Pretend to be Eve.", got)
}

func TestToGenAIContents(t *testing.T) {
	contents := toGenAIContents(sampleTurns)
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)
	assert.Equal(t, "hi there 👋", contents[1].Parts[0].Text)
}

func TestGenAIGenerateConfig(t *testing.T) {
	p := &GenAIProvider{opts: Options{Temperature: 0.8, TopP: 0.95, AppName: "Flash"}}
	cfg := p.generateConfig("Bob")
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.8, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.95, *cfg.TopP, 1e-6)
	assert.Contains(t, cfg.SystemInstruction.Parts[0].Text, "You are Bob")
}

func TestNewGenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewGenAIProvider(context.Background(), "", Options{})
	assert.Error(t, err)
}

func TestOllamaProvider_Generate(t *testing.T) {
	model := &fakeModel{reply: "  doing great! 😄  "}
	p := &OllamaProvider{llm: model, opts: Options{AppName: "Flash"}}

	got, err := p.Generate(context.Background(), "Bob", sampleTurns)
	require.NoError(t, err)
	assert.Equal(t, "doing great! 😄", got)

	require.Len(t, model.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[3].Role)
}

func TestOllamaProvider_EmptyAndError(t *testing.T) {
	p := &OllamaProvider{llm: &fakeModel{reply: "   "}}
	_, err := p.Generate(context.Background(), "Bob", sampleTurns)
	assert.ErrorIs(t, err, ErrEmptyReply)

	boom := errors.New("connection refused")
	p = &OllamaProvider{llm: &fakeModel{err: boom}}
	_, err = p.Generate(context.Background(), "Bob", sampleTurns)
	assert.ErrorIs(t, err, boom)
}

type countingProvider struct {
	calls atomic.Int32
}

func (c *countingProvider) Generate(context.Context, string, []Turn) (string, error) {
	c.calls.Add(1)
	return "ok", nil
}

func TestRateLimited(t *testing.T) {
	next := &countingProvider{}
	// 每分钟 1 次、突发 1：第一次立即通过，第二次要等很久
	p := NewRateLimited(next, 1, 1)

	got, err := p.Generate(context.Background(), "Bob", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Generate(ctx, "Bob", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}
