// Package dto defines the HTTP request and response shapes.
package dto

// FilterRequest narrows retrieval by metadata. All fields optional.
type FilterRequest struct {
	Play      string `json:"play"`
	Act       string `json:"act"`
	Character string `json:"character"`
}

// AnswerRequest asks a question about the corpus. K distinguishes
// absent (nil, use the configured default) from an explicit value,
// which is validated as given.
type AnswerRequest struct {
	Question string         `json:"question" binding:"required"`
	K        *int           `json:"k"`
	Filters  *FilterRequest `json:"filters"`
}

// SearchRequest runs raw retrieval without synthesis.
type SearchRequest struct {
	Query   string         `json:"query" binding:"required"`
	K       *int           `json:"k"`
	Filters *FilterRequest `json:"filters"`
}
