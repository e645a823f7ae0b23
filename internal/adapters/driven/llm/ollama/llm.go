// Package ollama answers questions with a chat model served by Ollama.
package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = ollamaapi.DefaultBaseURL
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig selects the daemon and model.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService wraps /api/chat with streaming disabled.
type LLMService struct {
	api   *ollamaapi.Client
	model string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []message       `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *sampleSettings `json:"options,omitempty"`
}

// sampleSettings maps ChatOptions onto Ollama's modelfile parameters.
type sampleSettings struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model           string  `json:"model"`
	CreatedAt       string  `json:"created_at"`
	Message         message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// Chat sends the transcript and returns the single assistant turn.
// Ollama has no request id, so the reply timestamp stands in for one.
func (s *LLMService) Chat(
	ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions,
) (*driven.ChatResponse, error) {
	req := chatRequest{Model: s.model, Messages: make([]message, 0, len(messages))}
	for _, m := range messages {
		req.Messages = append(req.Messages, message{Role: m.Role, Content: m.Content})
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		req.Options = &sampleSettings{NumPredict: opts.MaxTokens, Temperature: opts.Temperature}
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return nil, err
	}

	return &driven.ChatResponse{
		Content:          strings.TrimSpace(resp.Message.Content),
		RequestID:        resp.CreatedAt,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

func (s *LLMService) ModelName() string { return s.model }

func (s *LLMService) Ping(ctx context.Context) error { return s.api.Ping(ctx) }

func (s *LLMService) Close() error { return nil }
