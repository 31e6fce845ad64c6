package corpus

import "fmt"

// Chunk is one embeddable unit of scene text together with all the
// metadata needed for filtering and for source attribution.
type Chunk struct {
	ID           string
	Text         string
	Play         string
	Category     Category
	ActLabel     string
	ActOrdinal   int
	SceneTitle   string
	SceneOrdinal int
	// ChunkOrdinal is 1-based within the scene.
	ChunkOrdinal int
	Characters   []string
	// Truncated marks a chunk produced by hard-splitting a sentence
	// that alone exceeded the chunk size limit.
	Truncated bool
}

// ChunkID builds the stable chunk identifier. Re-ingesting unchanged
// text yields the same id, so upserts replace rather than duplicate.
func ChunkID(playTitle string, actOrdinal, sceneOrdinal, chunkOrdinal int) string {
	return fmt.Sprintf("%s:a%d:s%d:c%d", Slug(playTitle), actOrdinal, sceneOrdinal, chunkOrdinal)
}
