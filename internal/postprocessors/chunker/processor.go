// Package chunker splits document text into fixed-size overlapping windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 250

// Processor splits text into windows of chunkSize characters, each sharing
// overlap characters with its predecessor.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSettings applies chunk settings, ignoring zero values.
func WithSettings(s domain.ChunkSettings) Option {
	return func(p *Processor) {
		WithChunkSize(s.Size)(p)
		if !s.IsZero() {
			WithOverlap(s.Overlap)(p)
		}
	}
}

// New creates a new chunker processor with the given options.
// It fails when the overlap would stop the window from advancing.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.Settings().Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Settings returns the effective window configuration.
func (p *Processor) Settings() domain.ChunkSettings {
	return domain.ChunkSettings{Size: p.chunkSize, Overlap: p.overlap}
}

// Split trims text and cuts it into windows. Sizes count runes, so a
// multi-byte character is never split. Empty input yields no chunks.
func (p *Processor) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return nil
	}

	chunks := make([]string, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for {
		end := min(n, start+p.chunkSize)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
		start = max(0, end-p.overlap)
	}
	return chunks
}

// Split is a convenience wrapper around New and Processor.Split.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidInput, overlap)
	}
	p, err := New(WithChunkSize(size), WithOverlap(overlap))
	if err != nil {
		return nil, err
	}
	return p.Split(text), nil
}
