// internal/search/vector_test.go
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/matching"
	"wastematch/internal/models"
)

func newTestSearch(t *testing.T, handler http.HandlerFunc) (*VectorSearch, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewVectorSearch(client, "waste-listings", logger.NewNoOpLogger()), srv
}

func knnCandidates() []models.Listing {
	return []models.Listing{
		{ID: "listing-1", WasteType: "Plastic", FactoryName: "Acme"},
		{ID: "listing-2", WasteType: "Copper", FactoryName: "Cu Ltd"},
	}
}

func esHits(hits ...map[string]interface{}) []byte {
	body := map[string]interface{}{
		"hits": map[string]interface{}{"hits": hits},
	}
	b, _ := json.Marshal(body)
	return b
}

func TestVectorSearchRank(t *testing.T) {
	var gotBody knnQuery
	vs, _ := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Write(esHits(
			map[string]interface{}{"_id": "listing-1", "_score": 0.91},
			map[string]interface{}{"_id": "listing-2", "_score": 0.35},
		))
	})

	req := matching.RankRequest{
		Requirement: models.Requirement{WasteType: "Plastic"},
		Embedding:   []float64{0.1, 0.2, 0.3},
		Candidates:  knnCandidates(),
		Limit:       10,
	}

	matches, err := vs.Rank(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "listing-1", matches[0].ListingID)
	// 0.91 similarity plus the exact-material boost, capped at 1.0
	assert.Equal(t, 100, matches[0].MatchPercentage)
	assert.Equal(t, 35, matches[1].MatchPercentage)

	assert.Equal(t, "embedding", gotBody.KNN.Field)
	assert.Equal(t, 10, gotBody.KNN.K)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, gotBody.KNN.QueryVector)
}

func TestVectorSearchEmptyEmbeddingShortCircuits(t *testing.T) {
	called := false
	vs, _ := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	matches, err := vs.Rank(context.Background(), matching.RankRequest{Candidates: knnCandidates()})

	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.False(t, called, "no search should run without a query vector")
}

func TestVectorSearchMissingIndex(t *testing.T) {
	vs, _ := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	req := matching.RankRequest{
		Requirement: models.Requirement{WasteType: "Plastic"},
		Embedding:   []float64{0.1},
		Candidates:  knnCandidates(),
	}

	_, err := vs.Rank(context.Background(), req)

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeIndexNotFound, stdErr.Code)
}

func TestVectorSearchUnknownHitSkipped(t *testing.T) {
	vs, _ := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Write(esHits(
			map[string]interface{}{"_id": "stale-id", "_score": 0.99},
			map[string]interface{}{"_id": "listing-2", "_score": 0.60},
		))
	})

	req := matching.RankRequest{
		Requirement: models.Requirement{WasteType: "Plastic"},
		Embedding:   []float64{0.1},
		Candidates:  knnCandidates(),
	}

	matches, err := vs.Rank(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "listing-2", matches[0].ListingID)
}

func TestVectorSearchFiltersLowScores(t *testing.T) {
	vs, _ := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Write(esHits(
			map[string]interface{}{"_id": "listing-2", "_score": 0.12},
		))
	})

	req := matching.RankRequest{
		Requirement: models.Requirement{WasteType: "Plastic"},
		Embedding:   []float64{0.1},
		Candidates:  knnCandidates(),
	}

	matches, err := vs.Rank(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, matches)
}
