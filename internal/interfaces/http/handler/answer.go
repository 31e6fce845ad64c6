package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/interfaces/http/dto"
)

// AnswerHandler serves the question-answering and raw search routes.
type AnswerHandler struct {
	engine *rag.Engine
}

// NewAnswerHandler creates an AnswerHandler.
func NewAnswerHandler(engine *rag.Engine) *AnswerHandler {
	return &AnswerHandler{engine: engine}
}

func toAskInput(question string, k *int, filters *dto.FilterRequest) rag.AskInput {
	in := rag.AskInput{Question: question, K: k}
	if filters != nil {
		in.Filter = rag.SearchFilter{
			Play:      filters.Play,
			Act:       filters.Act,
			Character: filters.Character,
		}
	}
	return in
}

// Answer handles POST /answer.
func (h *AnswerHandler) Answer(c *gin.Context) {
	var req dto.AnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.engine.Ask(c.Request.Context(), toAskInput(req.Question, req.K, req.Filters))
	if err != nil {
		respondError(c, err)
		return
	}

	sources := make([]dto.SourceResponse, len(answer.Sources))
	for i, s := range answer.Sources {
		sources[i] = dto.SourceResponse{
			Index:      s.Index,
			Play:       s.Play,
			Act:        s.Act,
			SceneTitle: s.SceneTitle,
			Similarity: s.Similarity,
		}
	}
	c.JSON(http.StatusOK, dto.AnswerResponse{
		Answer:  answer.Answer,
		Sources: sources,
	})
}

// Search handles POST /search: retrieval without synthesis.
func (h *AnswerHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if !bindJSON(c, &req) {
		return
	}

	results, err := h.engine.Search(c.Request.Context(), toAskInput(req.Query, req.K, req.Filters))
	if err != nil {
		respondError(c, err)
		return
	}

	passages := make([]dto.PassageResponse, len(results))
	for i, r := range results {
		passages[i] = dto.PassageResponse{
			ID:         r.Chunk.ID,
			Play:       r.Chunk.Play,
			Category:   string(r.Chunk.Category),
			Act:        r.Chunk.ActLabel,
			SceneTitle: r.Chunk.SceneTitle,
			Characters: r.Chunk.Characters,
			Text:       r.Chunk.Text,
			Truncated:  r.Chunk.Truncated,
			Similarity: r.Similarity,
		}
	}
	c.JSON(http.StatusOK, dto.SearchResponse{Results: passages})
}
