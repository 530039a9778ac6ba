// internal/workers/matching/llm-match-scoring/validation.go
package llmmatchscoring

import "wastematch/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"requirementId", "userId"},
		Properties: map[string]validation.Property{
			"requirementId": {
				Type:      "string",
				MinLength: intPtr(1),
				MaxLength: intPtr(64),
			},
			"userId": {
				Type:      "string",
				MinLength: intPtr(1),
				MaxLength: intPtr(64),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(v int) *int { return &v }
