// Package rag implements the ingestion and question-answering
// pipelines over the play corpus.
package rag

import (
	"context"

	"shakespeare-rag-api/internal/domain/corpus"
)

// Embedder turns text into vectors. One call may batch several inputs;
// the result preserves input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer from a system and a user message.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SearchFilter narrows retrieval by metadata. Empty fields match
// everything; set fields are combined with AND.
type SearchFilter struct {
	Play      string
	Act       string
	Character string
}

// IsZero reports whether no filter field is set.
func (f *SearchFilter) IsZero() bool {
	return f == nil || (f.Play == "" && f.Act == "" && f.Character == "")
}

// RetrievedResult is one ranked passage coming back from the index.
type RetrievedResult struct {
	Chunk corpus.Chunk
	// Similarity is in [0,1], higher is closer.
	Similarity float64
}

// AskInput is a question with optional retrieval knobs. A nil K means
// "use the configured default"; an explicit K is validated as given,
// so zero is rejected rather than silently replaced.
type AskInput struct {
	Question string
	K        *int
	Filter   SearchFilter
}

// KOf builds an explicit K value.
func KOf(k int) *int {
	return &k
}

// Source attributes one passage used to ground the answer. Index
// matches the source markers embedded in the prompt context.
type Source struct {
	Index      int     `json:"index"`
	Play       string  `json:"play"`
	Act        string  `json:"act"`
	SceneTitle string  `json:"scene_title"`
	Similarity float64 `json:"similarity"`
}

// Answer is the synthesized reply plus its supporting sources. Sources
// is empty when no relevant context was found.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	PlaysIngested int
	PlaysFailed   int
	ScenesParsed  int
	ChunksIndexed int
	Failures      []PlayFailure
}

// PlayFailure records one play that could not be ingested. A failing
// play never blocks the rest of the corpus.
type PlayFailure struct {
	Play string
	Err  error
}
