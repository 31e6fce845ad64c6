package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakespeare-rag-api/internal/application/rag"
)

func TestBuildFilterCombinesSetFields(t *testing.T) {
	assert.Empty(t, buildFilter(nil))
	assert.Empty(t, buildFilter(&rag.SearchFilter{}))

	expr := buildFilter(&rag.SearchFilter{Play: "Hamlet", Act: "ACT III", Character: "HAMLET"})
	assert.Equal(t, `play == "Hamlet" && act_label == "ACT III" && characters like "%HAMLET%"`, expr)
}

func TestBuildFilterEscapesQuotes(t *testing.T) {
	expr := buildFilter(&rag.SearchFilter{Play: `All's "Well"`})
	assert.Equal(t, `play == "All's \"Well\""`, expr)
}

func TestBuildFilterKeepsPercentInEqualityValues(t *testing.T) {
	expr := buildFilter(&rag.SearchFilter{Play: "100% History"})
	assert.Equal(t, `play == "100% History"`, expr)
}

func TestBuildFilterDropsWildcardFromCharacterMatch(t *testing.T) {
	// The character filter is an infix match, so a caller-supplied
	// wildcard must not widen it.
	expr := buildFilter(&rag.SearchFilter{Character: "HAM%LET"})
	assert.Equal(t, `characters like "%HAMLET%"`, expr)
}

func searchResult(ids []string, scores []float32) client.SearchResult {
	return client.SearchResult{
		ResultCount: len(ids),
		Fields:      client.ResultSet{entity.NewColumnVarChar("id", ids)},
		Scores:      scores,
	}
}

func TestCollectResultsUsesScoresAsSimilarity(t *testing.T) {
	// COSINE scores come back best-first with higher meaning closer;
	// the ranking must preserve that.
	results := []client.SearchResult{
		searchResult([]string{"a", "b", "c"}, []float32{0.95, 0.60, 0.10}),
	}

	out := collectResults(results, 3)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Chunk.ID)
	assert.Equal(t, "b", out[1].Chunk.ID)
	assert.Equal(t, "c", out[2].Chunk.ID)
	assert.InDelta(t, 0.95, out[0].Similarity, 1e-6)
	assert.InDelta(t, 0.10, out[2].Similarity, 1e-6)
}

func TestCollectResultsBreaksTiesByID(t *testing.T) {
	results := []client.SearchResult{
		searchResult([]string{"b-chunk", "a-chunk"}, []float32{0.5, 0.5}),
	}

	out := collectResults(results, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a-chunk", out[0].Chunk.ID)
	assert.Equal(t, "b-chunk", out[1].Chunk.ID)
}

func TestCollectResultsTruncatesToK(t *testing.T) {
	results := []client.SearchResult{
		searchResult([]string{"a", "b", "c"}, []float32{0.9, 0.8, 0.7}),
	}

	out := collectResults(results, 1)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Chunk.ID)
}
