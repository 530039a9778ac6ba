// internal/matching/ranker.go
package matching

import (
	"fmt"
	"sort"
	"strings"

	"wastematch/internal/models"
)

// Ranker scores candidate listings against a requirement embedding and
// produces a deterministic, bounded result list.
type Ranker struct {
	ExactMatchBoost float64
	MinPercent      int
	MaxResults      int
}

// NewRanker returns a Ranker with the marketplace's historical defaults.
func NewRanker() *Ranker {
	return &Ranker{
		ExactMatchBoost: 0.1,
		MinPercent:      20,
		MaxResults:      10,
	}
}

// Rank computes boosted cosine scores for every candidate carrying an
// embedding, discards low-relevance results, and orders the rest.
//
// An empty requirement embedding short-circuits to an empty result set:
// scoring everything as zero and then filtering would be equivalent for
// the default threshold, but the contract is explicit so a zero
// threshold can never surface a full list of meaningless matches.
func (r *Ranker) Rank(req models.Requirement, reqEmbedding []float64, candidates []models.Listing) []models.Match {
	if len(reqEmbedding) == 0 {
		return []models.Match{}
	}

	reqMaterial := strings.ToLower(strings.TrimSpace(req.WasteType))

	matches := make([]models.Match, 0, len(candidates))
	for _, listing := range candidates {
		if !listing.HasEmbedding() {
			continue
		}

		sim := Cosine(reqEmbedding, listing.Embedding)

		if reqMaterial != "" && strings.ToLower(strings.TrimSpace(listing.WasteType)) == reqMaterial {
			sim += r.ExactMatchBoost
			if sim > 1.0 {
				sim = 1.0
			}
		}

		pct := Percentage(sim)
		if pct <= r.MinPercent {
			continue
		}

		m := models.MatchFromListing(listing)
		m.MatchPercentage = pct
		m.MatchReason = fmt.Sprintf("%d%% semantic similarity to your %s requirement", pct, req.WasteType)
		matches = append(matches, m)
	}

	SortMatches(matches)

	if len(matches) > r.MaxResults {
		matches = matches[:r.MaxResults]
	}
	return matches
}

// SortMatches orders matches by descending percentage, breaking ties by
// listing ID in ascending lexical order so repeated runs over shuffled
// input produce identical output.
func SortMatches(matches []models.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MatchPercentage != matches[j].MatchPercentage {
			return matches[i].MatchPercentage > matches[j].MatchPercentage
		}
		return matches[i].ListingID < matches[j].ListingID
	})
}
