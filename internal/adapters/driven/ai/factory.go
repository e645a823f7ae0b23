// Package ai provides factory functions for creating AI service adapters
// and the vector index that stores their output.
package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	localembed "github.com/custodia-labs/ragvault/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/ragvault/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragvault/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragvault/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragvault/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragvault/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// IndexDir is the vector index directory inside the data directory.
const IndexDir = "index"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // nil means local heuristic answers.
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds the embedding service, the vector index sized to it and
// the optional LLM service. Providers are not pinged for embeddings, so
// commands that never embed keep working offline. An index failure is fatal;
// an unreachable LLM is reported as a warning and kept, so each answer
// records its own provider error.
func Initialise(settings *domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	index, err := OpenVectorIndex(settings.Paths.DataDir, embedder.Dimensions())
	if err != nil {
		embedder.Close()
		return nil, err
	}

	result := &InitResult{
		EmbeddingService: embedder,
		VectorIndex:      index,
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return result, nil
	}
	if llm != nil {
		if err := ping(llm); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s LLM unreachable: %v", settings.LLM.Provider, err))
		}
		result.LLMService = llm
	}
	return result, nil
}

// OpenVectorIndex opens the flat index under dataDir.
func OpenVectorIndex(dataDir string, dimensions int) (driven.VectorIndex, error) {
	idx, err := flat.Open(filepath.Join(dataDir, IndexDir), dimensions)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// embedders maps each provider that can embed to its constructor.
// Anthropic has no embeddings endpoint and is absent.
var embedders = map[domain.AIProvider]func(*domain.EmbeddingSettings) (driven.EmbeddingService, error){
	domain.AIProviderLocal: func(es *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return localembed.NewEmbeddingService(localembed.Config{Dimensions: es.Dimensions}), nil
	},
	domain.AIProviderOllama: func(es *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    es.BaseURL,
			Model:      es.Model,
			Dimensions: knownDimensions(es),
		}), nil
	},
	domain.AIProviderOpenAI: func(es *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     es.APIKey,
			BaseURL:    es.BaseURL,
			Model:      es.Model,
			Dimensions: knownDimensions(es),
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
}

// chatModels maps each remote answer provider to its constructor.
var chatModels = map[domain.AIProvider]func(*domain.LLMSettings) (driven.LLMService, error){
	domain.AIProviderOllama: func(ls *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: ls.BaseURL, Model: ls.Model}), nil
	},
	domain.AIProviderOpenAI: func(ls *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{APIKey: ls.APIKey, BaseURL: ls.BaseURL, Model: ls.Model})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
	domain.AIProviderAnthropic: func(ls *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{APIKey: ls.APIKey, BaseURL: ls.BaseURL, Model: ls.Model})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
}

// knownDimensions looks the model up in the catalogue. Zero lets the
// adapter pick its default. The Dimensions setting only sizes the local
// embedder.
func knownDimensions(es *domain.EmbeddingSettings) int {
	return domain.EmbeddingDimensions()[es.Model]
}

// CreateEmbeddingService builds the embedder named by settings. A nil
// settings value or an empty provider means the offline local embedder.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return localembed.NewEmbeddingService(localembed.Config{}), nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use local, ollama or openai")
	}
	build, ok := embedders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateLLMService builds the remote answer provider. It returns nil, nil
// for the local provider, which needs no service.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.Provider == "" || settings.Provider == domain.AIProviderLocal {
		return nil, nil
	}
	build, ok := chatModels[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%s LLM requires an API key", settings.Provider)
	}
	return build(settings)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func ping(svc pinger) error {
	return pingWithin(svc, pingTimeout)
}

func pingWithin(svc pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svc.Ping(ctx)
}
