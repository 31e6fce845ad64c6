package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakespeare-rag-api/internal/config"
	apperrors "shakespeare-rag-api/pkg/errors"
)

func fastRetry(attempts int) config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts: attempts,
		Initial:     time.Millisecond,
		Max:         5 * time.Millisecond,
		Multiplier:  2,
	}
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})
}

func TestEmbedSendsAuthAndRestoresOrder(t *testing.T) {
	var gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Reply in reverse order; the client must restore input order
		// from the index field.
		resp := embeddingsResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	ec := NewEmbeddingClient(client, config.EmbeddingConfig{Model: "text-embedding-3-small", Dimension: 2, BatchSize: 8, Retry: fastRetry(1)})
	vectors, err := ec.Embed(t.Context(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
	assert.Equal(t, []float32{2, 1}, vectors[2])
}

func TestEmbedSplitsBatches(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Input), 2)

		resp := embeddingsResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{1, 0}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	ec := NewEmbeddingClient(client, config.EmbeddingConfig{Dimension: 2, BatchSize: 2, Retry: fastRetry(1)})
	vectors, err := ec.Embed(t.Context(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, int32(3), requests.Load())
}

func TestEmbedRetriesOnRateLimit(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(embeddingsResponse{
			Data: []struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{{Index: 0, Embedding: []float32{1, 0}}},
		})
	})

	ec := NewEmbeddingClient(client, config.EmbeddingConfig{Dimension: 2, BatchSize: 8, Retry: fastRetry(3)})
	vectors, err := ec.Embed(t.Context(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, int32(2), requests.Load())
}

func TestEmbedGivesUpAfterRetryBudget(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	ec := NewEmbeddingClient(client, config.EmbeddingConfig{Dimension: 2, BatchSize: 8, Retry: fastRetry(3)})
	_, err := ec.Embed(t.Context(), []string{"a"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmbeddingUnavailable))
	assert.Equal(t, int32(3), requests.Load())
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	ec := NewEmbeddingClient(client, config.EmbeddingConfig{Dimension: 2, BatchSize: 8, Retry: fastRetry(5)})
	_, err := ec.Embed(t.Context(), []string{"a"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmbeddingUnavailable))
	assert.Equal(t, int32(1), requests.Load())
}

func TestEmbedRejectsDimensionMismatch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingsResponse{
			Data: []struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{{Index: 0, Embedding: []float32{1, 0, 0}}},
		})
	})

	ec := NewEmbeddingClient(client, config.EmbeddingConfig{Dimension: 2, BatchSize: 8, Retry: fastRetry(1)})
	_, err := ec.Embed(t.Context(), []string{"a"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmbeddingUnavailable))
}

func TestChatCompleteReturnsContent(t *testing.T) {
	var gotReq chatRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  An answer.  "}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	})

	cc := NewChatClient(client, config.LLMConfig{Model: "gpt-4o-mini", MaxTokens: 100, Temperature: 0.7, Retry: fastRetry(1)})
	text, err := cc.Complete(t.Context(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "An answer.", text)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, 100, gotReq.MaxTokens)
}

func TestChatEmptyChoicesIsUnavailable(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	cc := NewChatClient(client, config.LLMConfig{Retry: fastRetry(1)})
	_, err := cc.Complete(t.Context(), "s", "u")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGenerationUnavailable))
}

func TestReachableToleratesAuthFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.NoError(t, client.Reachable(t.Context()))
}

func TestReachableFailsOnServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	assert.Error(t, client.Reachable(t.Context()))
}
