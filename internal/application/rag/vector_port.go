package rag

import (
	"context"

	"shakespeare-rag-api/internal/domain/corpus"
)

// ChunkRecord is a chunk paired with its embedding, ready for the
// index.
type ChunkRecord struct {
	Chunk  corpus.Chunk
	Vector []float32
}

// VectorIndex is the port every index backend implements. Search
// applies the metadata filter before ranking and returns at most k
// results ordered by similarity descending, ties broken by chunk id
// ascending.
type VectorIndex interface {
	// EnsureReady creates collections/indexes as needed and verifies
	// the backend is reachable.
	EnsureReady(ctx context.Context) error

	// Upsert inserts or replaces records by chunk id.
	Upsert(ctx context.Context, records []ChunkRecord) error

	Search(ctx context.Context, vector []float32, k int, filter *SearchFilter) ([]RetrievedResult, error)

	// DeleteByPlay removes every chunk of one play.
	DeleteByPlay(ctx context.Context, play string) error

	// ListPlays returns the distinct plays present in the index with
	// their categories.
	ListPlays(ctx context.Context) ([]corpus.PlayRef, error)

	// ListCharacters returns the distinct character names present in
	// the index metadata.
	ListCharacters(ctx context.Context) ([]string, error)
}
