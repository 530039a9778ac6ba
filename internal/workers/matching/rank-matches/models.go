// internal/workers/matching/rank-matches/models.go
package rankmatches

import "wastematch/internal/models"

type Input struct {
	RequirementID string `json:"requirementId"`
	UserID        string `json:"userId"`
}

type Output struct {
	RequirementID string         `json:"requirementId"`
	Matches       []models.Match `json:"matches"`
	MatchCount    int            `json:"matchCount"`
	RankedAt      string         `json:"rankedAt"` // ISO 8601
}
