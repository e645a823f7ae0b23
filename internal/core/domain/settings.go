package domain

import "fmt"

// AIProvider names a backend for embeddings, answers or both.
type AIProvider string

const (
	// AIProviderLocal runs in-process: feature hashing for embeddings and
	// the extractive answerer for answers.
	AIProviderLocal     AIProvider = "local"
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai" // or any compatible BaseURL
	AIProviderAnthropic AIProvider = "anthropic"
)

// providerInfo is what ragvault knows about one provider. Models are empty
// where the provider cannot serve that role.
type providerInfo struct {
	id          AIProvider
	description string
	needsKey    bool
	embedModel  string
	chatModel   string
}

// providers is listed in menu order.
var providers = []providerInfo{
	{id: AIProviderLocal, description: "Local (in-process, offline)", embedModel: "feature-hash"},
	{id: AIProviderOllama, description: "Ollama (local)", embedModel: "nomic-embed-text", chatModel: "llama3.2"},
	{id: AIProviderOpenAI, description: "OpenAI (cloud)", needsKey: true, embedModel: "text-embedding-3-small", chatModel: "gpt-4o-mini"},
	{id: AIProviderAnthropic, description: "Anthropic (cloud)", needsKey: true, chatModel: "claude-3-5-sonnet-latest"},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, info := range providers {
		if info.id == p {
			return info, true
		}
	}
	return providerInfo{}, false
}

func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

func (p AIProvider) RequiresAPIKey() bool {
	info, _ := p.info()
	return info.needsKey
}

// CanEmbed reports whether the provider offers an embeddings endpoint.
func (p AIProvider) CanEmbed() bool {
	info, _ := p.info()
	return info.embedModel != ""
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the label shown in interactive setup.
func (p AIProvider) Description() string {
	if info, ok := p.info(); ok {
		return info.description
	}
	return "Unknown"
}

// EmbeddingSettings is the [embedding] config section.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Dimensions sizes the local embedder only; remote models have fixed sizes.
	Dimensions int
}

// IsConfigured reports whether the provider can embed with these settings.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.CanEmbed() {
		return false
	}
	return !e.Provider.RequiresAPIKey() || e.APIKey != ""
}

// LLMSettings is the [llm] config section.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether a remote answer provider is usable.
// The local provider is never "configured": it needs no service.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	return !l.Provider.RequiresAPIKey() || l.APIKey != ""
}

// ChunkSettings sizes the chunker's character window.
type ChunkSettings struct {
	Size    int
	Overlap int
}

// IsZero reports whether no chunking was configured.
func (c ChunkSettings) IsZero() bool {
	return c.Size == 0 && c.Overlap == 0
}

// Validate rejects windows that cannot advance.
func (c ChunkSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidInput, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than size %d", ErrInvalidInput, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings configures the confidence gate.
//
// TopK candidates are pulled from the index. If the best scores below
// MinRelevance nothing is admitted; otherwise hits within ScoreWindow of
// the best, and still at or above MinRelevance, are admitted up to
// MaxContexts.
type RetrievalSettings struct {
	TopK         int
	MaxContexts  int
	MinRelevance float64
	ScoreWindow  float64
}

// Validate rejects gate settings that can never admit a context.
func (r RetrievalSettings) Validate() error {
	if r.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, r.TopK)
	}
	if r.MaxContexts <= 0 {
		return fmt.Errorf("%w: max_contexts must be positive, got %d", ErrInvalidInput, r.MaxContexts)
	}
	if r.ScoreWindow < 0 {
		return fmt.Errorf("%w: score_window must not be negative", ErrInvalidInput)
	}
	return nil
}

// PathSettings locates the corpus and the data directory that holds the
// SQLite database and the vector index.
type PathSettings struct {
	DataDir string
	DocsDir string
}

// AppSettings is the whole resolved configuration.
type AppSettings struct {
	Paths     PathSettings
	Chunking  ChunkSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
}

// DefaultAppSettings works offline: both providers are local.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Paths:    PathSettings{DataDir: "data", DocsDir: "docs"},
		Chunking: ChunkSettings{Size: 1800, Overlap: 250},
		Retrieval: RetrievalSettings{
			TopK:         8,
			MaxContexts:  4,
			MinRelevance: 0.35,
			ScoreWindow:  0.08,
		},
		Embedding: EmbeddingSettings{Provider: AIProviderLocal, Dimensions: 384},
		LLM:       LLMSettings{Provider: AIProviderLocal},
	}
}

// AllEmbeddingProviders lists providers that can embed, in menu order.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, info := range providers {
		if info.embedModel != "" {
			out = append(out, info.id)
		}
	}
	return out
}

// AllLLMProviders lists every provider that can answer, local included.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, len(providers))
	for i, info := range providers {
		out[i] = info.id
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to its default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, info := range providers {
		if info.embedModel != "" {
			out[info.id] = info.embedModel
		}
	}
	return out
}

// DefaultLLMModels maps each remote answer provider to its default model.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, info := range providers {
		if info.chatModel != "" {
			out[info.id] = info.chatModel
		}
	}
	return out
}

// EmbeddingDimensions is the catalogue of remote embedding model sizes.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
