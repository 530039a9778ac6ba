// internal/workers/marketplace/query-listings/handler_test.go
package querylistings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastematch/internal/common/logger"
	"wastematch/internal/models"
)

type mockListings struct {
	listings []models.Listing
	err      error
	calls    int
}

func (m *mockListings) GetActive(_ context.Context) ([]models.Listing, error) {
	m.calls++
	return m.listings, m.err
}

type mockFormulas struct {
	formulas map[string]models.Formula
	err      error
}

func (m *mockFormulas) GetAll(_ context.Context) (map[string]models.Formula, error) {
	return m.formulas, m.err
}

func activeListings() []models.Listing {
	return []models.Listing{
		{ID: "listing-1", WasteType: "Plastic", City: "Pune", Embedding: []float64{0.1}},
		{ID: "listing-2", WasteType: "Steel", City: "Mumbai"},
	}
}

func plasticFormulas() map[string]models.Formula {
	return map[string]models.Formula{
		"plastic": {WasteType: "plastic", VirginEmissionFactor: 2.5, RecycledEmissionFactor: 0.8},
	}
}

func TestExecuteCacheMissPopulatesCache(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	listings := &mockListings{listings: activeListings()}

	mock.ExpectGet(cacheKey).RedisNil()
	payload, _ := json.Marshal(activeListings())
	mock.ExpectSet(cacheKey, payload, LoadConfig().CacheTTL).SetVal("OK")

	h := NewHandler(LoadConfig(), listings, &mockFormulas{formulas: plasticFormulas()}, cache, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, output.Source)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, 1, listings.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteCacheHitSkipsDatabase(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	listings := &mockListings{listings: activeListings()}

	payload, _ := json.Marshal(activeListings())
	mock.ExpectGet(cacheKey).SetVal(string(payload))

	h := NewHandler(LoadConfig(), listings, &mockFormulas{formulas: plasticFormulas()}, cache, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, SourceCache, output.Source)
	assert.Equal(t, 2, output.Count)
	assert.Zero(t, listings.calls, "cache hit must not touch the database")
}

func TestExecuteCacheOutageFallsBack(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	listings := &mockListings{listings: activeListings()}

	mock.ExpectGet(cacheKey).SetErr(errors.New("connection refused"))

	h := NewHandler(LoadConfig(), listings, &mockFormulas{}, cache, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err, "a cache outage must not fail the query")
	assert.Equal(t, SourceDatabase, output.Source)
	assert.Equal(t, 1, listings.calls)
}

func TestExecuteFiltersByMaterialAndCity(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	payload, _ := json.Marshal(activeListings())
	mock.ExpectGet(cacheKey).SetVal(string(payload))

	h := NewHandler(LoadConfig(), &mockListings{}, &mockFormulas{formulas: plasticFormulas()}, cache, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{WasteType: "plastic", City: "pune"})

	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, "listing-1", output.Listings[0].ID)
}

func TestExecuteEnrichment(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	payload, _ := json.Marshal(activeListings())
	mock.ExpectGet(cacheKey).SetVal(string(payload))

	h := NewHandler(LoadConfig(), &mockListings{}, &mockFormulas{formulas: plasticFormulas()}, cache, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	require.Equal(t, 2, output.Count)
	// plastic has a formula, steel falls back to the default
	assert.InDelta(t, 1.7, output.Listings[0].CO2SavingsPerTon, 1e-9)
	assert.InDelta(t, fallbackCO2Savings, output.Listings[1].CO2SavingsPerTon, 1e-9)
	assert.Nil(t, output.Listings[0].Embedding, "embeddings never leave the matching layer")
}

func TestExecuteDatabaseErrorPropagates(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).RedisNil()

	h := NewHandler(LoadConfig(), &mockListings{err: errors.New("db down")}, &mockFormulas{}, cache, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})

	require.Error(t, err)
}
