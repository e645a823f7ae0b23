// Package local provides an offline embedding service based on feature hashing.
//
// Each lower-cased word token is hashed into one of Dimensions buckets with a
// hash-derived sign, weighted by 1+log(tf), and the vector is L2-normalised.
// The result is deterministic and needs no model download.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/embedding"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "feature-hash"
	DefaultDimensions = 384
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Config holds configuration for the local embedding service.
type Config struct {
	// Dimensions is the number of hash buckets (default: 384).
	Dimensions int
}

// EmbeddingService hashes tokens into a fixed-size vector.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a new local embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: cfg.Dimensions}
}

// Embed generates a unit vector for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tf := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tf[tok]++
	}

	vec := make([]float32, s.dimensions)
	if len(tf) == 0 {
		// No word tokens: fall back to a single bucket keyed by the raw text
		// so the vector still has unit norm.
		bucket, _ := s.bucket(strings.TrimSpace(text))
		vec[bucket] = 1
		return vec, nil
	}

	for tok, n := range tf {
		bucket, sign := s.bucket(tok)
		vec[bucket] += sign * float32(1+math.Log(float64(n)))
	}

	embedding.Normalize(vec)
	if isZero(vec) {
		// Every bucket cancelled out.
		bucket, _ := s.bucket(text)
		vec[bucket] = 1
	}
	return vec, nil
}

// EmbedBatch embeds texts in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return DefaultModel
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) bucket(token string) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum64()
	sign := float32(1)
	if sum>>63 == 1 {
		sign = -1
	}
	return int(sum % uint64(s.dimensions)), sign
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
