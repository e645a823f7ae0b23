// Package openai answers questions through chat completions on OpenAI or
// any compatible gateway, such as OpenRouter.
package openai

import (
	"context"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the client. APIKey is required.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	client *goopenai.Client
	model  string
}

func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	client, err := openaiapi.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Chat returns the first choice. A reply with no choices is an empty
// completion rather than an error, so the caller can fall back on its own.
func (s *LLMService) Chat(
	ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions,
) (*driven.ChatResponse, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    make([]goopenai.ChatCompletionMessage, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}
	for i, m := range messages {
		req.Messages[i] = goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, openaiapi.Upstream(err)
	}

	out := &driven.ChatResponse{
		RequestID:        resp.ID,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if len(resp.Choices) > 0 {
		out.Content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	return out, nil
}

func (s *LLMService) ModelName() string { return s.model }

func (s *LLMService) Ping(ctx context.Context) error {
	return openaiapi.Ping(ctx, s.client)
}

func (s *LLMService) Close() error { return nil }
