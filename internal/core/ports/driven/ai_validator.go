package driven

import "github.com/custodia-labs/ragvault/internal/core/domain"

// AIConfigValidator checks that provider settings reach a live service
// before they are trusted. A nil settings value, and an LLM section that
// selects the local answerer, validate trivially.
type AIConfigValidator interface {
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
	ValidateLLM(settings *domain.LLMSettings) error
}
