package types

import (
	"encoding/json"
	"fmt"
)

// TopPick is one recommended car inside a structured recommendation.
type TopPick struct {
	ID     int64  `json:"id,omitempty"`
	Year   int    `json:"year"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Price  int    `json:"price"`
	Reason string `json:"reason,omitempty"`
}

// RecommendationResult is either a plain informational message or a
// structured summary with ranked picks. The plain form encodes as a bare
// JSON string so the frontend can render it verbatim.
type RecommendationResult struct {
	Message        string    `json:"-"`
	Summary        string    `json:"summary,omitempty"`
	TopPicks       []TopPick `json:"top_picks,omitempty"`
	Considerations string    `json:"considerations,omitempty"`
}

// IsPlain reports whether the result carries no structured content.
func (r RecommendationResult) IsPlain() bool {
	return r.Summary == "" && len(r.TopPicks) == 0 && r.Considerations == ""
}

func (r RecommendationResult) MarshalJSON() ([]byte, error) {
	if r.IsPlain() {
		return json.Marshal(r.Message)
	}
	type alias RecommendationResult
	return json.Marshal(alias(r))
}

func (r *RecommendationResult) UnmarshalJSON(data []byte) error {
	var msg string
	if err := json.Unmarshal(data, &msg); err == nil {
		*r = RecommendationResult{Message: msg}
		return nil
	}
	type alias RecommendationResult
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("recommendations is neither a string nor an object: %w", err)
	}
	*r = RecommendationResult(a)
	return nil
}
