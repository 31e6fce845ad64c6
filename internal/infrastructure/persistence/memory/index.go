// Package memory implements the vector index in process memory with a
// brute-force cosine scan. It backs tests and local runs.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/domain/corpus"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/metrics"
)

type record struct {
	chunk rag.ChunkRecord
	norm  float64
}

// Index is a thread-safe in-memory vector index.
type Index struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{records: make(map[string]record)}
}

// EnsureReady is a no-op for the in-memory backend.
func (ix *Index) EnsureReady(_ context.Context) error {
	return nil
}

// Len reports the number of stored chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Upsert inserts or replaces records by chunk id.
func (ix *Index) Upsert(_ context.Context, records []rag.ChunkRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, rec := range records {
		if rec.Chunk.ID == "" {
			return apperrors.New(apperrors.CodeInternalError, "chunk record without id")
		}
		ix.records[rec.Chunk.ID] = record{chunk: rec, norm: norm(rec.Vector)}
	}
	metrics.IndexUpsertTotal.WithLabelValues("memory", "ok").Add(float64(len(records)))
	return nil
}

// Search scans all records, applies the metadata filter, and returns
// up to k results ordered by similarity descending, ties broken by
// chunk id ascending.
func (ix *Index) Search(_ context.Context, vector []float32, k int, filter *rag.SearchFilter) ([]rag.RetrievedResult, error) {
	start := time.Now()
	qnorm := norm(vector)

	ix.mu.RLock()
	var out []rag.RetrievedResult
	for _, rec := range ix.records {
		if !matches(rec.chunk, filter) {
			continue
		}
		out = append(out, rag.RetrievedResult{
			Chunk:      rec.chunk.Chunk,
			Similarity: cosine(vector, qnorm, rec.chunk.Vector, rec.norm),
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if len(out) > k {
		out = out[:k]
	}

	metrics.IndexSearchDuration.WithLabelValues("memory").Observe(time.Since(start).Seconds())
	metrics.IndexSearchTotal.WithLabelValues("memory", "ok").Inc()
	return out, nil
}

// DeleteByPlay removes every chunk of one play.
func (ix *Index) DeleteByPlay(_ context.Context, play string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for id, rec := range ix.records {
		if rec.chunk.Chunk.Play == play {
			delete(ix.records, id)
		}
	}
	return nil
}

// ListPlays returns the distinct plays with their categories.
func (ix *Index) ListPlays(_ context.Context) ([]corpus.PlayRef, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	categories := make(map[string]corpus.Category)
	for _, rec := range ix.records {
		if rec.chunk.Chunk.Play != "" {
			categories[rec.chunk.Chunk.Play] = rec.chunk.Chunk.Category
		}
	}
	titles := make([]string, 0, len(categories))
	for title := range categories {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	out := make([]corpus.PlayRef, len(titles))
	for i, title := range titles {
		out[i] = corpus.PlayRef{Title: title, Category: categories[title]}
	}
	return out, nil
}

// ListCharacters returns the distinct character names.
func (ix *Index) ListCharacters(_ context.Context) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	set := make(map[string]struct{})
	for _, rec := range ix.records {
		for _, name := range rec.chunk.Chunk.Characters {
			set[name] = struct{}{}
		}
	}
	return sortedSet(set), nil
}

func matches(rec rag.ChunkRecord, filter *rag.SearchFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Play != "" && rec.Chunk.Play != filter.Play {
		return false
	}
	if filter.Act != "" && rec.Chunk.ActLabel != filter.Act {
		return false
	}
	if filter.Character != "" {
		found := false
		for _, name := range rec.Chunk.Characters {
			if strings.EqualFold(name, filter.Character) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
