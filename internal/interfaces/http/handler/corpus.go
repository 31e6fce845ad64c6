package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shakespeare-rag-api/internal/application/rag"
	"shakespeare-rag-api/internal/interfaces/http/dto"
)

// CorpusHandler serves the catalog routes derived from the index
// metadata.
type CorpusHandler struct {
	catalog *rag.Catalog
	name    string
	version string
}

// NewCorpusHandler creates a CorpusHandler.
func NewCorpusHandler(catalog *rag.Catalog, name, version string) *CorpusHandler {
	return &CorpusHandler{catalog: catalog, name: name, version: version}
}

// Info handles GET /.
func (h *CorpusHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ServiceInfoResponse{
		Service: h.name,
		Version: h.version,
		Status:  "ok",
	})
}

// Plays handles GET /plays.
func (h *CorpusHandler) Plays(c *gin.Context) {
	plays, err := h.catalog.Plays(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.PlayResponse, len(plays))
	for i, p := range plays {
		out[i] = dto.PlayResponse{Title: p.Title, Category: string(p.Category)}
	}
	c.JSON(http.StatusOK, dto.PlaysResponse{Plays: out})
}

// Characters handles GET /characters.
func (h *CorpusHandler) Characters(c *gin.Context) {
	characters, err := h.catalog.Characters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if characters == nil {
		characters = []string{}
	}
	c.JSON(http.StatusOK, dto.CharactersResponse{Characters: characters})
}
