package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/domain/corpus"
	"shakespeare-rag-api/internal/infrastructure/persistence/memory"
	apperrors "shakespeare-rag-api/pkg/errors"
)

// fakeEmbedder maps text about Hamlet's soliloquy onto one axis and
// everything else onto the other, so retrieval order is predictable.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.Contains(strings.ToLower(text), "to be") {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

type fakeGenerator struct {
	calls    int
	lastUser string
	reply    string
	err      error
}

func (f *fakeGenerator) Complete(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func soliloquyChunks() []corpus.Chunk {
	return []corpus.Chunk{
		{
			ID:           "hamlet:a3:s1:c1",
			Text:         "To be, or not to be, that is the question.",
			Play:         "Hamlet",
			Category:     corpus.CategoryTragedy,
			ActLabel:     "ACT III",
			ActOrdinal:   3,
			SceneTitle:   "SCENE I. A room in the castle.",
			SceneOrdinal: 1,
			ChunkOrdinal: 1,
			Characters:   []string{"HAMLET"},
		},
		{
			ID:           "hamlet:a1:s1:c1",
			Text:         "Who is there? Long live the king!",
			Play:         "Hamlet",
			Category:     corpus.CategoryTragedy,
			ActLabel:     "ACT I",
			ActOrdinal:   1,
			SceneTitle:   "SCENE I. Elsinore.",
			SceneOrdinal: 1,
			ChunkOrdinal: 1,
			Characters:   []string{"BERNARDO"},
		},
		{
			ID:           "tempest:a1:s2:c1",
			Text:         "Full fathom five thy father lies.",
			Play:         "The Tempest",
			Category:     corpus.CategoryComedy,
			ActLabel:     "ACT I",
			ActOrdinal:   1,
			SceneTitle:   "SCENE II. The island.",
			SceneOrdinal: 2,
			ChunkOrdinal: 1,
			Characters:   []string{"ARIEL"},
		},
	}
}

func seededEngine(t *testing.T, embedder *fakeEmbedder, generator *fakeGenerator, maxContextChars int) *rag.Engine {
	t.Helper()
	index := memory.NewIndex()
	indexer := rag.NewIndexer(rag.NewParser(), rag.NewChunker(0, 0, 1), embedder, index, nil, 2, 1)
	require.NoError(t, indexer.IndexChunks(context.Background(), soliloquyChunks()))

	retriever := rag.NewRetriever(embedder, index, 3, 10)
	return rag.NewEngine(retriever, generator, maxContextChars)
}

func TestAskValidatesBeforeAnyExternalCall(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "unused"}
	engine := seededEngine(t, embedder, generator, 0)
	callsAfterSeed := embedder.calls

	_, err := engine.Ask(context.Background(), rag.AskInput{Question: "   "})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidParam))

	_, err = engine.Ask(context.Background(), rag.AskInput{Question: "What news?", K: rag.KOf(99)})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidParam))

	_, err = engine.Ask(context.Background(), rag.AskInput{Question: "What news?", K: rag.KOf(-1)})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidParam))

	// An explicit zero is a bad parameter, not a request for the
	// default.
	_, err = engine.Ask(context.Background(), rag.AskInput{Question: "What news?", K: rag.KOf(0)})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidParam))

	assert.Equal(t, callsAfterSeed, embedder.calls)
	assert.Zero(t, generator.calls)
}

func TestAskReturnsFixedAnswerWhenNothingMatches(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "unused"}
	engine := seededEngine(t, embedder, generator, 0)

	answer, err := engine.Ask(context.Background(), rag.AskInput{
		Question: "To be or not to be?",
		Filter:   rag.SearchFilter{Play: "Macbeth"},
	})
	require.NoError(t, err)
	assert.Equal(t, rag.NoContextAnswer, answer.Answer)
	assert.NotNil(t, answer.Sources)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, generator.calls)
}

func TestAskBuildsSourcesInRankOrder(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "**Hamlet** weighs being against not being."}
	engine := seededEngine(t, embedder, generator, 0)

	answer, err := engine.Ask(context.Background(), rag.AskInput{
		Question: "What does Hamlet mean by to be or not to be?",
		K:        rag.KOf(2),
	})
	require.NoError(t, err)
	assert.Equal(t, generator.reply, answer.Answer)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, 1, answer.Sources[0].Index)
	assert.Equal(t, "Hamlet", answer.Sources[0].Play)
	assert.Equal(t, "ACT III", answer.Sources[0].Act)
	assert.InDelta(t, 1.0, answer.Sources[0].Similarity, 0.001)
	assert.Equal(t, 2, answer.Sources[1].Index)

	// The prompt context carries markers matching the source indexes.
	assert.Contains(t, generator.lastUser, "--- Source 1 ---")
	assert.Contains(t, generator.lastUser, "--- Source 2 ---")
	assert.Contains(t, generator.lastUser, "To be, or not to be")
}

func TestAskDropsLowestRankedWhenOverBudget(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "grounded answer"}
	engine := seededEngine(t, embedder, generator, 200)

	answer, err := engine.Ask(context.Background(), rag.AskInput{
		Question: "What does Hamlet mean by to be or not to be?",
		K:        rag.KOf(3),
	})
	require.NoError(t, err)

	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "ACT III", answer.Sources[0].Act)
	assert.NotContains(t, generator.lastUser, "--- Source 2 ---")
}

func TestAskPropagatesEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "unused"}
	engine := seededEngine(t, embedder, generator, 0)

	embedder.err = apperrors.New(apperrors.CodeEmbeddingUnavailable, "embedding provider failed")
	_, err := engine.Ask(context.Background(), rag.AskInput{Question: "To be or not to be?"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmbeddingUnavailable))
	assert.Zero(t, generator.calls)
}

func TestAskGenerationFailureSurfacesAsUnavailable(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{err: apperrors.New(apperrors.CodeGenerationUnavailable, "generation provider failed")}
	engine := seededEngine(t, embedder, generator, 0)

	_, err := engine.Ask(context.Background(), rag.AskInput{Question: "To be or not to be?"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGenerationUnavailable))
}

func TestSearchReturnsRankedPassages(t *testing.T) {
	embedder := &fakeEmbedder{}
	engine := seededEngine(t, embedder, &fakeGenerator{}, 0)

	results, err := engine.Search(context.Background(), rag.AskInput{
		Question: "to be or not to be",
		K:        rag.KOf(1),
		Filter:   rag.SearchFilter{Play: "Hamlet"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hamlet:a3:s1:c1", results[0].Chunk.ID)
	assert.Equal(t, []string{"HAMLET"}, results[0].Chunk.Characters)
}
