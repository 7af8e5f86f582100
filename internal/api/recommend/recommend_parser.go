package recommend

import (
	"encoding/json"
	"strings"

	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
)

// stripJSONFence removes a surrounding ```json ... ``` block if present.
// Gemini wraps JSON replies in fences even when told not to.
func stripJSONFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseRecommendations decodes the model reply into a structured result.
// Anything that is not usable JSON is passed through as a plain message so
// the frontend can still show something.
func parseRecommendations(text string) types.RecommendationResult {
	cleaned := stripJSONFence(text)

	var structured struct {
		Summary        string          `json:"summary"`
		TopPicks       []types.TopPick `json:"top_picks"`
		Considerations string          `json:"considerations"`
	}
	if err := json.Unmarshal([]byte(cleaned), &structured); err == nil &&
		(structured.Summary != "" || len(structured.TopPicks) > 0 || structured.Considerations != "") {
		return types.RecommendationResult{
			Summary:        structured.Summary,
			TopPicks:       structured.TopPicks,
			Considerations: structured.Considerations,
		}
	}

	return types.RecommendationResult{Message: strings.TrimSpace(text)}
}
