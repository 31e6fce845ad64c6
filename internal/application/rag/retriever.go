package rag

import (
	"context"
	"strings"
	"time"

	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/logger"
	"shakespeare-rag-api/pkg/tracer"
)

const maxQuestionChars = 2000

// Retriever embeds a query and runs the filtered index search.
type Retriever struct {
	embedder Embedder
	index    VectorIndex
	defaultK int
	maxK     int
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder Embedder, index VectorIndex, defaultK, maxK int) *Retriever {
	if defaultK <= 0 {
		defaultK = 3
	}
	if maxK <= 0 {
		maxK = 10
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		defaultK: defaultK,
		maxK:     maxK,
	}
}

// validate normalizes the input and rejects bad parameters before any
// external call is made.
func (r *Retriever) validate(in *AskInput) error {
	in.Question = strings.TrimSpace(in.Question)
	if in.Question == "" {
		return apperrors.New(apperrors.CodeInvalidParam, "question must not be empty")
	}
	if len(in.Question) > maxQuestionChars {
		return apperrors.Newf(apperrors.CodeInvalidParam, "question exceeds %d characters", maxQuestionChars)
	}
	if in.K == nil {
		in.K = &r.defaultK
	}
	if *in.K < 1 {
		return apperrors.New(apperrors.CodeInvalidParam, "k must be at least 1")
	}
	if *in.K > r.maxK {
		return apperrors.Newf(apperrors.CodeInvalidParam, "k must not exceed %d", r.maxK)
	}
	in.Filter.Play = strings.TrimSpace(in.Filter.Play)
	in.Filter.Act = strings.TrimSpace(in.Filter.Act)
	in.Filter.Character = strings.TrimSpace(in.Filter.Character)
	return nil
}

// Retrieve returns at most in.K passages ranked by similarity. An
// empty result is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, in AskInput) ([]RetrievedResult, error) {
	if err := r.validate(&in); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "rag.retrieve")
	defer span.End()

	vectors, err := r.embedder.Embed(ctx, []string{in.Question})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, apperrors.New(apperrors.CodeEmbeddingUnavailable, "empty embedding result")
	}

	var filter *SearchFilter
	if !in.Filter.IsZero() {
		filter = &in.Filter
	}

	start := time.Now()
	results, err := r.index.Search(ctx, vectors[0], *in.K, filter)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "retrieval done",
		"k", *in.K,
		"results", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}
