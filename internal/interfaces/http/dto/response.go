package dto

// SourceResponse attributes one passage behind an answer. Index
// matches the source markers in the generation context.
type SourceResponse struct {
	Index      int     `json:"index"`
	Play       string  `json:"play"`
	Act        string  `json:"act"`
	SceneTitle string  `json:"scene_title"`
	Similarity float64 `json:"similarity"`
}

// AnswerResponse is the reply to POST /answer.
type AnswerResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
}

// PassageResponse is one retrieved passage with full metadata.
type PassageResponse struct {
	ID         string   `json:"id"`
	Play       string   `json:"play"`
	Category   string   `json:"category"`
	Act        string   `json:"act"`
	SceneTitle string   `json:"scene_title"`
	Characters []string `json:"characters,omitempty"`
	Text       string   `json:"text"`
	Truncated  bool     `json:"truncated,omitempty"`
	Similarity float64  `json:"similarity"`
}

// SearchResponse is the reply to POST /search.
type SearchResponse struct {
	Results []PassageResponse `json:"results"`
}

// PlayResponse is one catalog entry: a play title with its category.
type PlayResponse struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// PlaysResponse is the reply to GET /plays.
type PlaysResponse struct {
	Plays []PlayResponse `json:"plays"`
}

// CharactersResponse is the reply to GET /characters.
type CharactersResponse struct {
	Characters []string `json:"characters"`
}

// ServiceInfoResponse is the reply to GET /.
type ServiceInfoResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// CheckResult is one readiness probe outcome.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ReadyResponse is the reply to GET /ready.
type ReadyResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}
