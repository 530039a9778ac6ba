// internal/workers/matching/rank-matches/validation.go
package rankmatches

import "wastematch/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"requirementId", "userId"},
		Properties: map[string]validation.Property{
			"requirementId": {
				Type:        "string",
				Description: "Requirement to rank listings against",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(64),
			},
			"userId": {
				Type:        "string",
				Description: "Owner of the requirement; reads are ownership-checked",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(64),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"requirementId": {Type: "string"},
			"matches":       {Type: "array"},
			"matchCount":    {Type: "integer"},
			"rankedAt":      {Type: "string"},
		},
		AdditionalProperties: true,
	}
}

func intPtr(v int) *int { return &v }
