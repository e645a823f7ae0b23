package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// settingFields maps config keys to the field they set.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingFields = map[string]func(*domain.AppSettings) any{
	"paths.data_dir":          func(s *domain.AppSettings) any { return &s.Paths.DataDir },
	"paths.docs_dir":          func(s *domain.AppSettings) any { return &s.Paths.DocsDir },
	"chunking.size":           func(s *domain.AppSettings) any { return &s.Chunking.Size },
	"chunking.overlap":        func(s *domain.AppSettings) any { return &s.Chunking.Overlap },
	"retrieval.top_k":         func(s *domain.AppSettings) any { return &s.Retrieval.TopK },
	"retrieval.max_contexts":  func(s *domain.AppSettings) any { return &s.Retrieval.MaxContexts },
	"retrieval.min_relevance": func(s *domain.AppSettings) any { return &s.Retrieval.MinRelevance },
	"retrieval.score_window":  func(s *domain.AppSettings) any { return &s.Retrieval.ScoreWindow },
	"embedding.provider":      func(s *domain.AppSettings) any { return &s.Embedding.Provider },
	"embedding.model":         func(s *domain.AppSettings) any { return &s.Embedding.Model },
	"embedding.base_url":      func(s *domain.AppSettings) any { return &s.Embedding.BaseURL },
	"embedding.api_key":       func(s *domain.AppSettings) any { return &s.Embedding.APIKey },
	"embedding.dimensions":    func(s *domain.AppSettings) any { return &s.Embedding.Dimensions },
	"llm.provider":            func(s *domain.AppSettings) any { return &s.LLM.Provider },
	"llm.model":               func(s *domain.AppSettings) any { return &s.LLM.Model },
	"llm.base_url":            func(s *domain.AppSettings) any { return &s.LLM.BaseURL },
	"llm.api_key":             func(s *domain.AppSettings) any { return &s.LLM.APIKey },
}

// envOverrides maps environment variables to the config key they override.
var envOverrides = []struct{ env, key string }{
	{"DATA_DIR", "paths.data_dir"},
	{"DOCS_DIR", "paths.docs_dir"},
	{"CHUNK_CHARS", "chunking.size"},
	{"CHUNK_OVERLAP_CHARS", "chunking.overlap"},
	{"TOP_K", "retrieval.top_k"},
	{"MAX_CONTEXTS", "retrieval.max_contexts"},
	{"MIN_RELEVANCE_SCORE", "retrieval.min_relevance"},
	{"SCORE_WINDOW", "retrieval.score_window"},
	{"EMBED_PROVIDER", "embedding.provider"},
	{"LLM_PROVIDER", "llm.provider"},
}

// SettingsService resolves settings from defaults, the config file and the
// environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a settings service reading the process
// environment. aiValidator may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup, for tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get resolves and validates the current settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings, err := s.resolve()
	if err != nil {
		return nil, err
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// resolve layers the config file and the environment over the defaults.
func (s *SettingsService) resolve() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for key, field := range settingFields {
		if _, ok := s.configStore.Get(key); !ok {
			continue
		}
		if err := s.loadStored(key, field(&settings)); err != nil {
			return nil, fmt.Errorf("%s in %s: %w", key, s.configStore.Path(), err)
		}
	}

	if err := s.applyEnv(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set validates value for key against the resolved settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	field, ok := settingFields[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}

	settings, err := s.resolve()
	if err != nil {
		return err
	}
	typed, err := assign(field(settings), value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	return s.configStore.Set(key, typed)
}

// Keys lists the settable keys in order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingFields))
	for k := range settingFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate resolves the settings and, when a validator is configured,
// checks that the configured providers are reachable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if s.aiValidator == nil {
		return nil
	}
	if err := s.aiValidator.ValidateEmbedding(&settings.Embedding); err != nil {
		return fmt.Errorf("embedding provider %s: %w", settings.Embedding.Provider, err)
	}
	if err := s.aiValidator.ValidateLLM(&settings.LLM); err != nil {
		return fmt.Errorf("llm provider %s: %w", settings.LLM.Provider, err)
	}
	return nil
}

// loadStored copies a typed config value into field.
func (s *SettingsService) loadStored(key string, field any) error {
	switch p := field.(type) {
	case *string:
		*p = s.configStore.GetString(key)
	case *int:
		v, _ := s.configStore.Get(key)
		if _, isInt := v.(int64); !isInt {
			if _, isInt = v.(int); !isInt {
				return fmt.Errorf("%w: expected an integer, got %v", domain.ErrInvalidInput, v)
			}
		}
		*p = s.configStore.GetInt(key)
	case *float64:
		v, _ := s.configStore.Get(key)
		switch v.(type) {
		case float64, int64, int:
		default:
			return fmt.Errorf("%w: expected a number, got %v", domain.ErrInvalidInput, v)
		}
		*p = s.configStore.GetFloat(key)
	case *domain.AIProvider:
		provider, err := parseProvider(s.configStore.GetString(key))
		if err != nil {
			return err
		}
		*p = provider
	}
	return nil
}

// applyEnv overrides settings from the environment. OPENAI_*, ANTHROPIC_*
// and OLLAMA_* variables apply to whichever side uses that provider.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) error {
	for _, o := range envOverrides {
		raw, ok := s.lookupEnv(o.env)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := assign(settingFields[o.key](settings), raw); err != nil {
			return fmt.Errorf("%s: %w", o.env, err)
		}
	}

	env := func(name string) string {
		v, _ := s.lookupEnv(name)
		return strings.TrimSpace(v)
	}
	override := func(dst *string, name string) {
		if v := env(name); v != "" {
			*dst = v
		}
	}

	switch settings.Embedding.Provider {
	case domain.AIProviderOpenAI:
		override(&settings.Embedding.APIKey, "OPENAI_API_KEY")
		override(&settings.Embedding.Model, "OPENAI_EMBED_MODEL")
		override(&settings.Embedding.BaseURL, "OPENAI_BASE_URL")
	case domain.AIProviderOllama:
		override(&settings.Embedding.BaseURL, "OLLAMA_BASE_URL")
	}

	switch settings.LLM.Provider {
	case domain.AIProviderOpenAI:
		override(&settings.LLM.APIKey, "OPENAI_API_KEY")
		override(&settings.LLM.Model, "OPENAI_MODEL")
		override(&settings.LLM.BaseURL, "OPENAI_BASE_URL")
	case domain.AIProviderAnthropic:
		override(&settings.LLM.APIKey, "ANTHROPIC_API_KEY")
	case domain.AIProviderOllama:
		override(&settings.LLM.BaseURL, "OLLAMA_BASE_URL")
	}
	return nil
}

// assign parses raw into field and returns the value to persist.
func assign(field any, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch p := field.(type) {
	case *string:
		*p = raw
		return raw, nil
	case *int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, raw)
		}
		*p = v
		return int64(v), nil
	case *float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, raw)
		}
		*p = v
		return v, nil
	case *domain.AIProvider:
		provider, err := parseProvider(raw)
		if err != nil {
			return nil, err
		}
		*p = provider
		return provider.String(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported setting type %T", domain.ErrInvalidInput, field)
	}
}

// parseProvider accepts provider names case-insensitively. "fallback" is an
// alias of local.
func parseProvider(raw string) (domain.AIProvider, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "fallback" {
		return domain.AIProviderLocal, nil
	}
	provider := domain.AIProvider(name)
	if !provider.IsValid() {
		return "", fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, raw)
	}
	return provider, nil
}

func validateSettings(s *domain.AppSettings) error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if err := s.Retrieval.Validate(); err != nil {
		return err
	}
	if s.Embedding.Provider == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not provide embeddings", domain.ErrInvalidInput)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}
	return nil
}
