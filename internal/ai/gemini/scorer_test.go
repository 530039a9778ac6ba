// internal/ai/gemini/scorer_test.go
package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/models"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testCandidates() []models.Listing {
	return []models.Listing{
		{ID: "listing-1", FactoryName: "Acme Polymers", City: "Pune", WasteType: "Plastic", AvgQuantity: "500", Unit: "tons"},
		{ID: "listing-2", FactoryName: "Steelworks", City: "Nagpur", WasteType: "Steel", AvgQuantity: "200", Unit: "tons"},
	}
}

func TestScoreMatches(t *testing.T) {
	stub := &stubGenerator{response: `[
		{"listing_id": "listing-2", "match_percentage": 40, "reason": "partial material match"},
		{"listing_id": "listing-1", "match_percentage": 95, "reason": "exact material and volume"}
	]`}
	scorer := NewScorer(stub, logger.NewNoOpLogger())

	req := models.Requirement{ID: "req-1", WasteType: "Plastic", Quantity: "500 tons", Priority: models.PriorityHigh}
	matches, err := scorer.ScoreMatches(context.Background(), req, testCandidates())

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "listing-1", matches[0].ListingID)
	assert.Equal(t, 95, matches[0].MatchPercentage)
	assert.Equal(t, "exact material and volume", matches[0].MatchReason)
	assert.Equal(t, "listing-2", matches[1].ListingID)

	// Prompt carries the requirement and every candidate.
	assert.Contains(t, stub.lastPrompt, "Material: Plastic")
	assert.Contains(t, stub.lastPrompt, "Quantity Needed: 500 tons")
	assert.Contains(t, stub.lastPrompt, "listing-2")
	assert.Contains(t, stub.lastPrompt, "match_percentage")
}

func TestScoreMatchesFencedResponse(t *testing.T) {
	payload := `[{"listing_id": "listing-1", "match_percentage": 80, "reason": "good fit"}]`
	fenced := "```json\n" + payload + "\n```"

	for _, response := range []string{payload, fenced} {
		stub := &stubGenerator{response: response}
		scorer := NewScorer(stub, logger.NewNoOpLogger())

		matches, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Plastic"}, testCandidates())

		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 80, matches[0].MatchPercentage)
	}
}

func TestScoreMatchesMalformedResponse(t *testing.T) {
	stub := &stubGenerator{response: "```json\nthe best match is listing-1\n```"}
	scorer := NewScorer(stub, logger.NewNoOpLogger())

	_, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Plastic"}, testCandidates())

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeLLMResponseMalformed, stdErr.Code)
	assert.Contains(t, stdErr.Metadata["rawPayload"], "listing-1")
}

func TestScoreMatchesUnknownListingDropped(t *testing.T) {
	stub := &stubGenerator{response: `[
		{"listing_id": "listing-1", "match_percentage": 90, "reason": "match"},
		{"listing_id": "hallucinated-id", "match_percentage": 85, "reason": "not real"}
	]`}
	scorer := NewScorer(stub, logger.NewNoOpLogger())

	matches, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Plastic"}, testCandidates())

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "listing-1", matches[0].ListingID)
}

func TestScoreMatchesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("connection refused")}
	scorer := NewScorer(stub, logger.NewNoOpLogger())

	_, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Plastic"}, testCandidates())

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeMatchingUnavailable, stdErr.Code)
}

func TestScoreMatchesNotConfigured(t *testing.T) {
	scorer := NewScorer(nil, logger.NewNoOpLogger())

	_, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Plastic"}, testCandidates())

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeMatchingNotConfigured, stdErr.Code)
}

func TestScoreMatchesNoCandidates(t *testing.T) {
	stub := &stubGenerator{response: "[]"}
	scorer := NewScorer(stub, logger.NewNoOpLogger())

	matches, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Plastic"}, nil)

	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Zero(t, stub.calls, "model must not be called without candidates")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"surrounding whitespace", "  \n[{\"a\":1}]\n ", `[{"a":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.input))
		})
	}
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, clampPercent(-5))
	assert.Equal(t, 100, clampPercent(150))
	assert.Equal(t, 73, clampPercent(72.6))
}

func TestBuildPromptListingContextDefaults(t *testing.T) {
	stub := &stubGenerator{response: "[]"}
	scorer := NewScorer(stub, logger.NewNoOpLogger())

	candidates := []models.Listing{{ID: "listing-9", WasteType: "Glass", AvgQuantity: "10"}}
	_, err := scorer.ScoreMatches(context.Background(), models.Requirement{WasteType: "Glass"}, candidates)

	require.NoError(t, err)
	assert.True(t, strings.Contains(stub.lastPrompt, "Independent Seller"))
	assert.True(t, strings.Contains(stub.lastPrompt, "Unknown Location"))
}
