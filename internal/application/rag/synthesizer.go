package rag

import (
	"context"
	"math"
	"time"

	"shakespeare-rag-api/pkg/logger"
	"shakespeare-rag-api/pkg/metrics"
	"shakespeare-rag-api/pkg/tracer"
)

// NoContextAnswer is returned verbatim when retrieval finds nothing
// relevant. It is a terminal answer, not an error.
const NoContextAnswer = "I couldn't find relevant Shakespeare content to answer your question."

// Engine orchestrates the full question-answering pipeline:
// retrieve, assemble context, generate, attribute sources.
type Engine struct {
	retriever       *Retriever
	generator       Generator
	maxContextChars int
}

// NewEngine creates an Engine.
func NewEngine(retriever *Retriever, generator Generator, maxContextChars int) *Engine {
	if maxContextChars <= 0 {
		maxContextChars = 12000
	}
	return &Engine{
		retriever:       retriever,
		generator:       generator,
		maxContextChars: maxContextChars,
	}
}

// Search runs retrieval without synthesis.
func (e *Engine) Search(ctx context.Context, in AskInput) ([]RetrievedResult, error) {
	return e.retriever.Retrieve(ctx, in)
}

// Ask answers a question grounded in retrieved passages. When nothing
// relevant is found it returns the fixed no-context answer with empty
// sources and never calls the generation model.
func (e *Engine) Ask(ctx context.Context, in AskInput) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "rag.ask")
	defer span.End()

	start := time.Now()
	answer, err := e.ask(ctx, in)
	metrics.AnswerDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.AnswersTotal.WithLabelValues("error").Inc()
	case len(answer.Sources) == 0:
		metrics.AnswersTotal.WithLabelValues("no_context").Inc()
	default:
		metrics.AnswersTotal.WithLabelValues("ok").Inc()
	}
	return answer, err
}

func (e *Engine) ask(ctx context.Context, in AskInput) (*Answer, error) {
	results, err := e.retriever.Retrieve(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		logger.Info(ctx, "no relevant context found", "question_len", len(in.Question))
		return &Answer{Answer: NoContextAnswer, Sources: []Source{}}, nil
	}

	contextBlock, retained := assembleContext(results, e.maxContextChars)
	if dropped := len(results) - len(retained); dropped > 0 {
		logger.Warn(ctx, "context budget exceeded, dropped lowest-ranked passages",
			"dropped", dropped, "retained", len(retained))
	}

	system, user := BuildPrompt(in.Question, contextBlock)
	text, err := e.generator.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, len(retained))
	for i, res := range retained {
		sources[i] = Source{
			Index:      i + 1,
			Play:       res.Chunk.Play,
			Act:        res.Chunk.ActLabel,
			SceneTitle: res.Chunk.SceneTitle,
			Similarity: round3(res.Similarity),
		}
	}
	return &Answer{Answer: text, Sources: sources}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
