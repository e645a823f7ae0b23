// Package openaiapi builds go-openai clients for the OpenAI embedding and
// chat adapters and turns their errors into ragvault's.
package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// DefaultBaseURL is the public API. Compatible gateways such as OpenRouter
// take their own base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// ErrMissingAPIKey is returned when a client is requested without a key.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// NewClient returns a client for baseURL, or DefaultBaseURL when empty.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*goopenai.Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return goopenai.NewClientWithConfig(cfg), nil
}

// Upstream wraps a client error as domain.ErrUpstreamUnavailable, keeping
// the status and message the API sent.
func Upstream(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai: %w: status %d: %s", domain.ErrUpstreamUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai: %w: status %d: %v", domain.ErrUpstreamUnavailable, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("openai: %w: %v", domain.ErrUpstreamUnavailable, err)
}

// Ping lists models, which checks the key without spending tokens.
func Ping(ctx context.Context, client *goopenai.Client) error {
	if _, err := client.ListModels(ctx); err != nil {
		return Upstream(err)
	}
	return nil
}
