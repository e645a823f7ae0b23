package domain

// NoInformationAnswer is returned when no context is confident enough.
const NoInformationAnswer = "I don't have enough information in the indexed documents to answer that."

// AnswerProvider tags who produced an answer.
type AnswerProvider string

// Answer providers.
const (
	// AnswerProviderLocal is the deterministic keyword heuristic.
	AnswerProviderLocal AnswerProvider = "local"

	// AnswerProviderRemote is an external text-generation service.
	AnswerProviderRemote AnswerProvider = "remote"
)

// FallbackReason explains why the local heuristic answered.
type FallbackReason string

// Fallback reasons.
const (
	FallbackNone            FallbackReason = ""
	FallbackNoContexts      FallbackReason = "no_contexts"
	FallbackEmptyContext    FallbackReason = "empty_context_string"
	FallbackNotConfigured   FallbackReason = "provider_not_configured"
	FallbackProviderError   FallbackReason = "provider_error"
	FallbackEmptyCompletion FallbackReason = "empty_completion"
)

// TokenUsage reports provider token accounting when available.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AnswerMeta describes how an answer was produced.
type AnswerMeta struct {
	Provider  AnswerProvider `json:"provider"`
	Model     string         `json:"model,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Reason    FallbackReason `json:"reason,omitempty"`
	Error     string         `json:"error,omitempty"`
	Usage     *TokenUsage    `json:"usage,omitempty"`
}

// IsFallback reports whether the local heuristic produced the answer.
func (m AnswerMeta) IsFallback() bool {
	return m.Provider == AnswerProviderLocal
}

// Answer is the result of a question.
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Meta      AnswerMeta `json:"llm_meta"`
}
