// internal/ai/gemini/scorer.go
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/matching"
	"wastematch/internal/models"
)

// contentGenerator is the slice of Client the scorer needs; tests
// substitute a stub.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// scoreSchema constrains the model's output before it is trusted.
const scoreSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["listing_id", "match_percentage"],
		"properties": {
			"listing_id": {"type": "string"},
			"match_percentage": {"type": "number", "minimum": 0, "maximum": 100},
			"reason": {"type": "string"}
		}
	}
}`

// Scorer implements the LLM-prompted match path. It is a separate,
// independently invokable path from the embedding-based ranking, never
// a fallback tier behind it.
type Scorer struct {
	gen    contentGenerator
	logger logger.Logger
}

func NewScorer(gen contentGenerator, log logger.Logger) *Scorer {
	return &Scorer{gen: gen, logger: log}
}

type llmScore struct {
	ListingID       string  `json:"listing_id"`
	MatchPercentage float64 `json:"match_percentage"`
	Reason          string  `json:"reason"`
}

// listingContext is the public-facing slice of a listing that goes into
// the prompt.
type listingContext struct {
	ID           string `json:"id"`
	Material     string `json:"material"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit,omitempty"`
	Seller       string `json:"seller"`
	Location     string `json:"location"`
	Availability string `json:"availability"`
}

// ScoreMatches asks the model to score every candidate against the
// requirement and hydrates the response back to full listing records.
//
// Failure semantics: a missing generator is a configuration error, a
// transport failure is "matching unavailable", and a malformed response
// after fence stripping is a reportable parse error carrying the raw
// payload. None of these are approximated with a silent empty result.
// An LLM-returned listing_id that does not resolve to a known candidate
// is dropped silently as model noise.
func (s *Scorer) ScoreMatches(ctx context.Context, req models.Requirement, candidates []models.Listing) ([]models.Match, error) {
	if s.gen == nil {
		return nil, apperrors.NewMatchingNotConfiguredError("gemini scoring client missing")
	}
	if len(candidates) == 0 {
		return []models.Match{}, nil
	}

	prompt, err := s.buildPrompt(req, candidates)
	if err != nil {
		return nil, apperrors.NewMatchingUnavailableError(err)
	}

	raw, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewLLMTimeoutError()
		}
		return nil, apperrors.NewMatchingUnavailableError(err)
	}

	scores, err := s.parseResponse(raw)
	if err != nil {
		s.logger.Error("LLM scoring payload unparseable", map[string]interface{}{
			"rawPayload": raw,
			"error":      err.Error(),
		})
		return nil, apperrors.NewLLMResponseMalformedError(raw, err)
	}

	byID := make(map[string]models.Listing, len(candidates))
	for _, l := range candidates {
		byID[l.ID] = l
	}

	matches := make([]models.Match, 0, len(scores))
	for _, score := range scores {
		listing, ok := byID[score.ListingID]
		if !ok {
			s.logger.Debug("dropping unknown listing id from LLM response", map[string]interface{}{
				"listingId": score.ListingID,
			})
			continue
		}

		m := models.MatchFromListing(listing)
		m.MatchPercentage = clampPercent(score.MatchPercentage)
		m.MatchReason = score.Reason
		matches = append(matches, m)
	}

	// Model ordering is advisory; the returned order is ours.
	matching.SortMatches(matches)
	return matches, nil
}

func (s *Scorer) buildPrompt(req models.Requirement, candidates []models.Listing) (string, error) {
	contexts := make([]listingContext, 0, len(candidates))
	for _, l := range candidates {
		seller := l.FactoryName
		if seller == "" {
			seller = "Independent Seller"
		}
		location := l.City
		if location == "" {
			location = "Unknown Location"
		}
		contexts = append(contexts, listingContext{
			ID:           l.ID,
			Material:     l.WasteType,
			Quantity:     l.AvgQuantity,
			Unit:         l.Unit,
			Seller:       seller,
			Location:     location,
			Availability: "Immediate",
		})
	}

	listingsJSON, err := json.MarshalIndent(contexts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal listing context: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert Circular Economy AI Matchmaker.\n")
	b.WriteString("I have a buyer who needs the following material:\n")
	fmt.Fprintf(&b, "- Material: %s\n", req.WasteType)
	fmt.Fprintf(&b, "- Quantity Needed: %s\n", req.Quantity)
	fmt.Fprintf(&b, "- Priority/Timing: %s\n\n", req.Priority)
	b.WriteString("Here are the available marketplace listings (potential suppliers):\n")
	b.Write(listingsJSON)
	b.WriteString("\n\nYour task is to analyze every single listing and determine how well it matches the buyer's requirement.\n")
	b.WriteString("Calculate a \"match_percentage\" (0 to 100) based strictly on these 4 factors:\n")
	b.WriteString("1. Material Match: Exact material matches are required for a high score. Substituted materials score lower.\n")
	b.WriteString("2. Volume Match: Does the supplier's quantity (and unit) closely align with the buyer's needed quantity?\n")
	b.WriteString("3. Location / Distance: Assume buyers prefer nearby companies. If the locations seem geographically close or are in the same region, boost the score.\n")
	b.WriteString("4. Timing Compatibility: Align the buyer's priority (High/Medium/Low) with the seller's availability.\n\n")
	b.WriteString("Return EXACTLY a JSON array of objects, with NO markdown formatting.\n")
	b.WriteString(`Format: [{"listing_id": "id string here", "match_percentage": 95, "reason": "Short 1 sentence reason explaining why this is a good match based on volume, location, and timing."}]` + "\n")
	b.WriteString("Only return listings with a score > 0. Sort the array descending by match_percentage.")

	return b.String(), nil
}

// parseResponse strips code fences the model may add despite
// instructions, validates the payload shape, and decodes it.
func (s *Scorer) parseResponse(raw string) ([]llmScore, error) {
	cleaned := extractJSON(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(scoreSchema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return nil, fmt.Errorf("schema violations: %s", strings.Join(issues, "; "))
	}

	var scores []llmScore
	if err := json.Unmarshal([]byte(cleaned), &scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return scores, nil
}

// extractJSON removes markdown code fences wrapping a JSON payload.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(cleaned, "`"))
}

func clampPercent(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v + 0.5)
}
