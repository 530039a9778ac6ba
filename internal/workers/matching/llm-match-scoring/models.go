// internal/workers/matching/llm-match-scoring/models.go
package llmmatchscoring

import "wastematch/internal/models"

type Input struct {
	RequirementID string `json:"requirementId"`
	UserID        string `json:"userId"`
}

type Output struct {
	RequirementID string         `json:"requirementId"`
	Matches       []models.Match `json:"matches"`
	MatchCount    int            `json:"matchCount"`
	ScoredAt      string         `json:"scoredAt"` // ISO 8601
}
