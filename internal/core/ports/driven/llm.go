package driven

import "context"

// LLMService writes the answer from the question and admitted contexts.
// It is optional: with no provider, or when a call fails, the answer
// service falls back to its extractive local answerer.
//
// Adapters: OpenAI (and OpenAI-compatible gateways), Anthropic, Ollama.
type LLMService interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error)
	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// ChatMessage is one turn. Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions are sampling limits. Zero values leave the provider default.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}

// ChatResponse carries the completion and what the provider billed for it.
// RequestID is whatever the provider offers for tracing; it may be empty.
type ChatResponse struct {
	Content   string
	RequestID string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
