package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakespeare-rag-api/internal/domain/corpus"
)

func contextResult(id, text string, similarity float64) RetrievedResult {
	return RetrievedResult{
		Chunk: corpus.Chunk{
			ID:         id,
			Text:       text,
			Play:       "Hamlet",
			ActLabel:   "ACT I",
			SceneTitle: "SCENE I.",
		},
		Similarity: similarity,
	}
}

func TestAssembleContextKeepsEverythingWithoutBudget(t *testing.T) {
	results := []RetrievedResult{
		contextResult("a", strings.Repeat("x", 500), 0.9),
		contextResult("b", strings.Repeat("y", 500), 0.8),
	}

	ctxBlock, retained := assembleContext(results, 0)
	require.Len(t, retained, 2)
	assert.Contains(t, ctxBlock, "--- Source 1 ---")
	assert.Contains(t, ctxBlock, "--- Source 2 ---")
}

func TestAssembleContextDropsLowestRankedFirst(t *testing.T) {
	results := []RetrievedResult{
		contextResult("a", "short text", 0.9),
		contextResult("b", "short text", 0.8),
		contextResult("c", "short text", 0.7),
	}
	budget := len(formatSource(1, results[0])) + len(formatSource(2, results[1])) + 2

	ctxBlock, retained := assembleContext(results, budget)
	require.Len(t, retained, 2)
	assert.Equal(t, "a", retained[0].Chunk.ID)
	assert.Equal(t, "b", retained[1].Chunk.ID)
	assert.NotContains(t, ctxBlock, "--- Source 3 ---")
}

func TestAssembleContextCutsSingleOversizedPassageExplicitly(t *testing.T) {
	results := []RetrievedResult{
		contextResult("a", strings.Repeat("a", 500), 0.9),
	}
	budget := len(formatSource(1, results[0])) - 100

	ctxBlock, retained := assembleContext(results, budget)
	require.Len(t, retained, 1)
	assert.LessOrEqual(t, len(ctxBlock), budget)
	assert.Contains(t, ctxBlock, "truncated to fit the context budget")
	// The caller's results are left untouched.
	assert.Equal(t, strings.Repeat("a", 500), results[0].Chunk.Text)
}

func TestAssembleContextEmptyInput(t *testing.T) {
	ctxBlock, retained := assembleContext(nil, 100)
	assert.Empty(t, ctxBlock)
	assert.Nil(t, retained)
}
