// internal/workers/matching/generate-embedding/validation.go
package generateembedding

import "wastematch/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"listingId"},
		Properties: map[string]validation.Property{
			"listingId": {
				Type:        "string",
				Description: "Listing whose vector should be (re)computed",
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
			"listingId": {
				Type: "string",
			},
			"embeddingAvailable": {
				Type:        "boolean",
				Description: "False when the embedding provider returned nothing; matching degrades instead of failing",
			},
			"dimensions": {
				Type: "integer",
			},
			"generatedAt": {
				Type: "string",
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(v int) *int { return &v }
