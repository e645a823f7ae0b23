package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{"Empty input returns default", "", 5, 1, 1},
		{"Valid choice within range", "3", 5, 1, 3},
		{"Choice below minimum returns default", "0", 5, 1, 1},
		{"Choice above maximum returns default", "6", 5, 1, 1},
		{"Invalid input returns default", "abc", 5, 2, 2},
		{"Maximum value is valid", "5", 5, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestSettingsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.settings.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-1234567890abcdef",
	}

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Chunking]")
	assert.Contains(t, out, "Size: 1800")
	assert.Contains(t, out, "Min relevance: 0.35")
	assert.Contains(t, out, "Dimensions: 384")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "1234567890")
	assert.NotContains(t, out, "local extractive only")
}

func TestSettingsShow_LocalAnswers(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Answers: local extractive only")
}

func TestSettingsSet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "chunking.size", "900")

	require.NoError(t, err)
	assert.Equal(t, "900", mocks.settings.stored["chunking.size"])
	assert.Contains(t, out, "Set chunking.size = 900")
}

func TestSettingsSet_MasksAPIKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "llm.api_key", "sk-1234567890abcdef")

	require.NoError(t, err)
	assert.Contains(t, out, "Set llm.api_key = sk-1...cdef")
}

func TestSettingsSet_Rejected(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.settings.setErr = domain.ErrInvalidInput

	_, err := execute("settings", "set", "chunking.size", "-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSet_NegativeValue(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "retrieval.min_relevance", "-0.5")

	require.NoError(t, err)
	assert.Equal(t, "-0.5", mocks.settings.stored["retrieval.min_relevance"])
	assert.Contains(t, out, "Set retrieval.min_relevance = -0.5")
}

func TestSettingsKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "chunking.size\nllm.provider\npaths.docs_dir\n", out)
}

func TestSettingsCheck(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	mocks.settings.validateErr = errors.New("connection refused")
	_, err = execute("settings", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSettingsLLM_Interactive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	// Choice 3 is OpenAI; default model; then the key.
	rootCmd.SetIn(bytes.NewBufferString("3\n\nsk-test-key-123456\n"))

	out, err := execute("settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, "openai", mocks.settings.stored["llm.provider"])
	assert.Equal(t, "gpt-4o-mini", mocks.settings.stored["llm.model"])
	assert.Equal(t, "sk-test-key-123456", mocks.settings.stored["llm.api_key"])
	assert.Contains(t, out, "llm provider configured: OpenAI (cloud)")
}

func TestSettingsEmbedding_Local(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(bytes.NewBufferString("1\n\n"))

	_, err := execute("settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, "local", mocks.settings.stored["embedding.provider"])
	assert.Equal(t, "feature-hash", mocks.settings.stored["embedding.model"])
	assert.NotContains(t, mocks.settings.stored, "embedding.api_key")
}

func TestSettingsLLM_MissingKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(bytes.NewBufferString("4\n\n\n"))

	_, err := execute("settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettings_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	_, err := execute("settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
