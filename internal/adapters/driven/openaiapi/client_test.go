package openaiapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "", time.Second)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestUpstream(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "api error",
			err:  &goopenai.APIError{HTTPStatusCode: 429, Message: "Rate limit reached"},
			want: "status 429: Rate limit reached",
		},
		{
			name: "request error",
			err:  &goopenai.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")},
			want: "status 502: bad gateway",
		},
		{
			name: "transport error",
			err:  errors.New("dial tcp: connection refused"),
			want: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Upstream(tt.err)
			assert.ErrorIs(t, got, domain.ErrUpstreamUnavailable)
			assert.Contains(t, got.Error(), tt.want)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"object": "list", "data": []}`))
	}))
	defer srv.Close()

	good, err := NewClient("good", srv.URL+"/", time.Second)
	require.NoError(t, err)
	assert.NoError(t, Ping(context.Background(), good))

	bad, err := NewClient("bad", srv.URL, time.Second)
	require.NoError(t, err)
	err = Ping(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "Incorrect API key")
}
