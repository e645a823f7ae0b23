// Package openai embeds chunks through the OpenAI embeddings endpoint or a
// compatible gateway.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/embedding"
	"github.com/custodia-labs/ragvault/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultModel             = "text-embedding-3-small"
	DefaultTimeout           = 60 * time.Second
	DefaultRequestsPerSecond = 5.0

	fallbackDimensions = 1536

	// maxInputs stays well under the API's per-request input cap.
	maxInputs = 256
)

// Config configures the client. APIKey is required; Dimensions defaults to
// the model's native size.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	Dimensions        int
	RequestsPerSecond float64
}

// EmbeddingService throttles requests with a token bucket so a large
// re-ingest does not trip the provider's rate limit.
type EmbeddingService struct {
	client     *goopenai.Client
	limiter    *rate.Limiter
	model      string
	dimensions int
	shortened  bool
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client, err := openaiapi.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = fallbackDimensions
	}

	return &EmbeddingService{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		// Only the text-embedding-3 family accepts a dimensions parameter.
		shortened: strings.HasPrefix(cfg.Model, "text-embedding-3-"),
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxInputs {
		vecs, err := s.request(ctx, texts[start:min(start+maxInputs, len(texts))])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// request embeds one slice. The API may return items out of order, so
// each is placed by its index.
func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openai: waiting for rate limit: %w", err)
	}

	req := goopenai.EmbeddingRequest{Model: goopenai.EmbeddingModel(s.model), Input: texts}
	if s.shortened {
		req.Dimensions = s.dimensions
	}
	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, openaiapi.Upstream(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: %w: sent %d inputs, got %d vectors",
			domain.ErrUpstreamUnavailable, len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) || vecs[item.Index] != nil {
			return nil, fmt.Errorf("openai: %w: unexpected embedding index %d",
				domain.ErrUpstreamUnavailable, item.Index)
		}
		vecs[item.Index] = embedding.Normalize(item.Embedding)
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int { return s.dimensions }

func (s *EmbeddingService) ModelName() string { return s.model }

func (s *EmbeddingService) Ping(ctx context.Context) error {
	return openaiapi.Ping(ctx, s.client)
}

func (s *EmbeddingService) Close() error { return nil }
