package openai

import (
	"context"
	"time"

	"shakespeare-rag-api/internal/config"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/metrics"
)

// EmbeddingClient calls the embeddings endpoint. The same model and
// dimension serve ingestion and query.
type EmbeddingClient struct {
	client    *Client
	model     string
	dimension int
	batchSize int
	timeout   time.Duration
	retry     config.RetryConfig
}

// NewEmbeddingClient creates an EmbeddingClient.
func NewEmbeddingClient(client *Client, cfg config.EmbeddingConfig) *EmbeddingClient {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &EmbeddingClient{
		client:    client,
		model:     model,
		dimension: cfg.Dimension,
		batchSize: batchSize,
		timeout:   cfg.Timeout,
		retry:     cfg.Retry,
	}
}

// Dimension returns the configured embedding dimension.
func (c *EmbeddingClient) Dimension() int {
	return c.dimension
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed returns one vector per input text, in input order. Batches are
// split per the configured batch size; exhausted retries surface as
// an embedding_unavailable error.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += c.batchSize {
		end := i + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (c *EmbeddingClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	var resp embeddingsResponse
	err := c.client.postJSON(ctx, "/embeddings", c.timeout, c.retry, &embeddingsRequest{
		Input: texts,
		Model: c.model,
	}, &resp)
	metrics.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingUnavailable, "embedding provider failed")
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("ok").Inc()

	if len(resp.Data) != len(texts) {
		return nil, apperrors.Newf(apperrors.CodeEmbeddingUnavailable,
			"embedding count mismatch: sent %d, got %d", len(texts), len(resp.Data))
	}

	// The provider may reorder entries; Index restores input order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, apperrors.Newf(apperrors.CodeEmbeddingUnavailable,
				"embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if c.dimension > 0 && len(v) != c.dimension {
			return nil, apperrors.Newf(apperrors.CodeEmbeddingUnavailable,
				"embedding %d has dimension %d, expected %d", i, len(v), c.dimension)
		}
	}
	return vectors, nil
}

// Reachable probes the provider endpoint for readiness checks.
func (c *EmbeddingClient) Reachable(ctx context.Context) error {
	return c.client.Reachable(ctx)
}
