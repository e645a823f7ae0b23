package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// serveVectors answers every /api/embed call with vec repeated once per input.
func serveVectors(t *testing.T, vec []float64, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if calls != nil {
			calls.Add(1)
		}
		resp := embedResponse{Model: req.Model}
		for range req.Input {
			resp.Embeddings = append(resp.Embeddings, vec)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, ollamaapi.DefaultBaseURL, svc.api.BaseURL())
}

func TestEmbedBatch_NormalisesInOrder(t *testing.T) {
	srv := serveVectors(t, []float64{3, 4}, nil)

	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm", Dimensions: 2})
	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.InDelta(t, 0.6, vecs[0][0], 1e-6)
	assert.InDelta(t, 0.8, vecs[1][1], 1e-6)
}

func TestEmbedBatch_SplitsLargeBatches(t *testing.T) {
	var calls atomic.Int32
	srv := serveVectors(t, []float64{1, 0}, &calls)

	texts := make([]string, maxBatch+1)
	for i := range texts {
		texts[i] = "chunk"
	}
	vecs, err := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2}).EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, vecs, maxBatch+1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedBatch_Empty(t *testing.T) {
	var calls atomic.Int32
	srv := serveVectors(t, []float64{1, 0}, &calls)

	vecs, err := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2}).EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Zero(t, calls.Load())
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := serveVectors(t, []float64{1, 0, 0}, nil)

	_, err := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2}).Embed(context.Background(), "a")

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestEmbed_ShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": []}`))
	}))
	defer srv.Close()

	_, err := NewEmbeddingService(Config{BaseURL: srv.URL}).Embed(context.Background(), "a")

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewEmbeddingService(Config{BaseURL: srv.URL}).Embed(context.Background(), "a")

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}
