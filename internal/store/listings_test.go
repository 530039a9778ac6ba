// internal/store/listings_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wastematch/internal/common/errors"
)

var listingCols = []string{
	"id", "factory_id", "factory_name", "city", "state", "waste_type",
	"avg_quantity", "unit", "hazardous", "storage_condition", "embedding",
	"created_at", "updated_at",
}

func listingRow(id string, embedding []float64) *sqlmock.Rows {
	var payload []byte
	if embedding != nil {
		payload, _ = json.Marshal(embedding)
	}
	now := time.Now()
	return sqlmock.NewRows(listingCols).AddRow(
		id, "factory-1", "Acme Polymers", "Pune", "MH", "Plastic",
		"500", "tons", false, "dry", payload, now, now,
	)
}

func TestGetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := listingRow("listing-1", []float64{0.1, 0.2})
	mock.ExpectQuery("SELECT (.+) FROM listings WHERE active = true").WillReturnRows(rows)

	s := NewListingStore(db)
	listings, err := s.GetActive(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "listing-1", listings[0].ID)
	assert.Equal(t, "Plastic", listings[0].WasteType)
	assert.Equal(t, []float64{0.1, 0.2}, listings[0].Embedding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveNilEmbedding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE active = true").
		WillReturnRows(listingRow("listing-1", nil))

	s := NewListingStore(db)
	listings, err := s.GetActive(context.Background())

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.False(t, listings[0].HasEmbedding())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(listingCols))

	s := NewListingStore(db)
	_, err = s.GetByID(context.Background(), "missing")

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeListingNotFound, stdErr.Code)
}

func TestMissingEmbeddings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM listings WHERE embedding IS NULL").
		WithArgs(50).
		WillReturnRows(listingRow("listing-7", nil))

	s := NewListingStore(db)
	listings, err := s.MissingEmbeddings(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "listing-7", listings[0].ID)
}

func TestUpdateEmbedding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	payload, _ := json.Marshal([]float64{0.5, 0.5})
	mock.ExpectExec("UPDATE listings SET embedding =").
		WithArgs(payload, "listing-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewListingStore(db)
	err = s.UpdateEmbedding(context.Background(), "listing-1", []float64{0.5, 0.5})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbeddingMissingListing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE listings SET embedding =").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewListingStore(db)
	err = s.UpdateEmbedding(context.Background(), "missing", []float64{0.5})

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeListingNotFound, stdErr.Code)
}
