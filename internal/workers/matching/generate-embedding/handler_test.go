// internal/workers/matching/generate-embedding/handler_test.go
package generateembedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/common/logger"
	"wastematch/internal/models"
)

type mockListings struct {
	listing       *models.Listing
	getErr        error
	updateErr     error
	updatedID     string
	updatedVector []float64
}

func (m *mockListings) GetByID(_ context.Context, id string) (*models.Listing, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.listing, nil
}

func (m *mockListings) UpdateEmbedding(_ context.Context, id string, embedding []float64) error {
	m.updatedID = id
	m.updatedVector = embedding
	return m.updateErr
}

type mockEmbedder struct {
	vector   []float64
	lastText string
}

func (m *mockEmbedder) EmbedText(_ context.Context, text string) []float64 {
	m.lastText = text
	return m.vector
}

type mockIndexer struct {
	indexed  []models.Listing
	indexErr error
}

func (m *mockIndexer) IndexListing(_ context.Context, listing models.Listing) error {
	m.indexed = append(m.indexed, listing)
	return m.indexErr
}

func testListing() *models.Listing {
	return &models.Listing{
		ID:               "listing-1",
		WasteType:        "Plastic",
		AvgQuantity:      "500 tons",
		Hazardous:        false,
		StorageCondition: "dry",
	}
}

func newTestHandler(listings *mockListings, embedder *mockEmbedder, indexer *mockIndexer, t *testing.T) *Handler {
	return NewHandler(LoadConfig(), listings, embedder, indexer, logger.NewTestLogger(t))
}

func TestExecuteGeneratesAndPersistsEmbedding(t *testing.T) {
	listings := &mockListings{listing: testListing()}
	embedder := &mockEmbedder{vector: []float64{0.1, 0.2, 0.3}}
	indexer := &mockIndexer{}
	h := newTestHandler(listings, embedder, indexer, t)

	output, err := h.Execute(context.Background(), &Input{ListingID: "listing-1"})

	require.NoError(t, err)
	assert.True(t, output.EmbeddingAvailable)
	assert.Equal(t, 3, output.Dimensions)
	assert.NotEmpty(t, output.GeneratedAt)

	assert.Equal(t, "Waste Type: Plastic, Quantity: 500 tons, Hazardous: false, Storage: dry", embedder.lastText)
	assert.Equal(t, "listing-1", listings.updatedID)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, listings.updatedVector)

	require.Len(t, indexer.indexed, 1)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, indexer.indexed[0].Embedding)
}

func TestExecuteEmptyVectorDegrades(t *testing.T) {
	listings := &mockListings{listing: testListing()}
	embedder := &mockEmbedder{vector: nil}
	indexer := &mockIndexer{}
	h := newTestHandler(listings, embedder, indexer, t)

	output, err := h.Execute(context.Background(), &Input{ListingID: "listing-1"})

	require.NoError(t, err, "provider outage must not fail the job")
	assert.False(t, output.EmbeddingAvailable)
	assert.Zero(t, output.Dimensions)
	assert.Empty(t, listings.updatedID, "no vector should be written")
	assert.Empty(t, indexer.indexed)
}

func TestExecuteListingNotFound(t *testing.T) {
	listings := &mockListings{getErr: apperrors.NewListingNotFoundError("missing")}
	h := newTestHandler(listings, &mockEmbedder{}, &mockIndexer{}, t)

	_, err := h.Execute(context.Background(), &Input{ListingID: "missing"})

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeListingNotFound, stdErr.Code)
}

func TestExecuteUpdateFailurePropagates(t *testing.T) {
	listings := &mockListings{listing: testListing(), updateErr: apperrors.NewDatabaseUpdateFailedError(errors.New("conn reset"))}
	embedder := &mockEmbedder{vector: []float64{0.5}}
	h := newTestHandler(listings, embedder, &mockIndexer{}, t)

	_, err := h.Execute(context.Background(), &Input{ListingID: "listing-1"})

	require.Error(t, err)
}

func TestExecuteIndexFailureTolerated(t *testing.T) {
	listings := &mockListings{listing: testListing()}
	embedder := &mockEmbedder{vector: []float64{0.5}}
	indexer := &mockIndexer{indexErr: errors.New("es down")}
	h := newTestHandler(listings, embedder, indexer, t)

	output, err := h.Execute(context.Background(), &Input{ListingID: "listing-1"})

	require.NoError(t, err, "index lag is recoverable, the job still completes")
	assert.True(t, output.EmbeddingAvailable)
	assert.Equal(t, "listing-1", listings.updatedID)
}

func TestInputSchemaRejectsMissingListingID(t *testing.T) {
	result := GetInputSchema()
	assert.Contains(t, result.Required, "listingId")
}
