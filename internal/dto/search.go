package dto

// Search modes: learn looks for people who teach the query, teach looks for
// people who want to learn it.
const (
	SearchModeLearn = "learn"
	SearchModeTeach = "teach"
)

// SearchRequest is the payload of the skill search endpoint.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Mode  string `json:"mode" validate:"required,oneof=learn teach"`
}

// SearchResult is one ranked candidate for a skill search.
type SearchResult struct {
	UserID       string  `json:"userId"`
	Name         string  `json:"name,omitempty"`
	Score        float64 `json:"score"`
	MatchedSkill string  `json:"matchedSkill"`
}
