// internal/search/vector.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/matching"
	"wastematch/internal/models"
)

// VectorSearch ranks listings with an Elasticsearch kNN query over the
// stored embedding field. It implements matching.Strategy; any failure
// (missing index, transport error, bad payload) surfaces as an error so
// the strategy chain can fall back to in-memory ranking.
type VectorSearch struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger

	ExactMatchBoost float64
	MinPercent      int
	NumCandidates   int
}

func NewVectorSearch(client *elasticsearch.Client, index string, log logger.Logger) *VectorSearch {
	return &VectorSearch{
		client:          client,
		index:           index,
		logger:          log,
		ExactMatchBoost: 0.1,
		MinPercent:      20,
		NumCandidates:   100,
	}
}

func (v *VectorSearch) Name() string { return "elasticsearch" }

type knnQuery struct {
	KNN  knnClause `json:"knn"`
	Size int       `json:"size"`
}

type knnClause struct {
	Field         string    `json:"field"`
	QueryVector   []float64 `json:"query_vector"`
	K             int       `json:"k"`
	NumCandidates int       `json:"num_candidates"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID    string  `json:"_id"`
			Score float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

// Rank executes the kNN search and hydrates hits against the candidate
// set. Hits that do not resolve to a known candidate are skipped.
func (v *VectorSearch) Rank(ctx context.Context, req matching.RankRequest) ([]models.Match, error) {
	if len(req.Embedding) == 0 {
		return []models.Match{}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	query := knnQuery{
		KNN: knnClause{
			Field:         "embedding",
			QueryVector:   req.Embedding,
			K:             limit,
			NumCandidates: v.NumCandidates,
		},
		Size: limit,
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("encode knn query: %w", err)
	}

	res, err := v.client.Search(
		v.client.Search.WithContext(ctx),
		v.client.Search.WithIndex(v.index),
		v.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, apperrors.NewVectorSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, apperrors.NewIndexNotFoundError(v.index)
		}
		return nil, apperrors.NewVectorSearchFailedError(fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewVectorSearchFailedError(fmt.Errorf("decode response: %w", err))
	}

	byID := make(map[string]models.Listing, len(req.Candidates))
	for _, l := range req.Candidates {
		byID[l.ID] = l
	}
	reqMaterial := matching.NormalizeMaterial(req.Requirement.WasteType)

	matches := make([]models.Match, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		listing, ok := byID[hit.ID]
		if !ok {
			v.logger.Debug("search hit not in candidate set, skipping", map[string]interface{}{
				"listingId": hit.ID,
			})
			continue
		}

		sim := hit.Score
		if reqMaterial != "" && matching.NormalizeMaterial(listing.WasteType) == reqMaterial {
			sim += v.ExactMatchBoost
			if sim > 1.0 {
				sim = 1.0
			}
		}

		pct := matching.Percentage(sim)
		if pct <= v.MinPercent {
			continue
		}

		m := models.MatchFromListing(listing)
		m.MatchPercentage = pct
		m.MatchReason = fmt.Sprintf("%d%% vector similarity to your %s requirement", pct, req.Requirement.WasteType)
		matches = append(matches, m)
	}

	matching.SortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
