package types

// SearchResponse is the envelope for POST /api/search. Cars is always
// present on success, as an empty array when nothing matched.
type SearchResponse struct {
	Success bool         `json:"success"`
	Cars    []CarSummary `json:"cars"`
	Error   string       `json:"error,omitempty"`
}

// AnalyzeResponse is the envelope for POST /api/analyze.
type AnalyzeResponse struct {
	Success         bool                  `json:"success"`
	Recommendations *RecommendationResult `json:"recommendations,omitempty"`
	Error           string                `json:"error,omitempty"`
}

// CarResponse is the envelope for GET /api/car/{id}.
type CarResponse struct {
	Success bool       `json:"success"`
	Car     *CarDetail `json:"car,omitempty"`
	Error   string     `json:"error,omitempty"`
}
