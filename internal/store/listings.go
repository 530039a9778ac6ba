// internal/store/listings.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/models"
)

// ListingStore reads and updates waste listings in Postgres.
// Embeddings are stored as a JSONB array alongside the listing row.
type ListingStore struct {
	db *sql.DB
}

func NewListingStore(db *sql.DB) *ListingStore {
	return &ListingStore{db: db}
}

const listingColumns = `id, factory_id, factory_name, city, state, waste_type,
	avg_quantity, unit, hazardous, storage_condition, embedding, created_at, updated_at`

// GetActive returns every active listing, newest first. Reads are
// consistent for the duration of one matching call.
func (s *ListingStore) GetActive(ctx context.Context) ([]models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE active = true ORDER BY created_at DESC`, listingColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("listings_active", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// GetByID returns a single listing.
func (s *ListingStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, listingColumns)

	row := s.db.QueryRowContext(ctx, query, id)
	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewListingNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("listing_by_id", err)
	}
	return listing, nil
}

// MissingEmbeddings returns listings whose vector has not been computed
// yet, bounded for batch processing.
func (s *ListingStore) MissingEmbeddings(ctx context.Context, limit int) ([]models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE embedding IS NULL ORDER BY created_at ASC LIMIT $1`, listingColumns)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("listings_missing_embeddings", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// UpdateEmbedding persists a freshly computed vector for a listing.
func (s *ListingStore) UpdateEmbedding(ctx context.Context, id string, embedding []float64) error {
	payload, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE listings SET embedding = $1, updated_at = NOW() WHERE id = $2`,
		payload, id,
	)
	if err != nil {
		return apperrors.NewDatabaseUpdateFailedError(err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return apperrors.NewListingNotFoundError(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	var embedding []byte
	var unit sql.NullString

	err := row.Scan(
		&l.ID, &l.FactoryID, &l.FactoryName, &l.City, &l.State, &l.WasteType,
		&l.AvgQuantity, &unit, &l.Hazardous, &l.StorageCondition, &embedding,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Unit = unit.String
	if len(embedding) > 0 {
		if err := json.Unmarshal(embedding, &l.Embedding); err != nil {
			// A corrupt vector degrades to "no embedding"; the ranker
			// skips the listing instead of the whole call failing.
			l.Embedding = nil
		}
	}
	return &l, nil
}

func scanListings(rows *sql.Rows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan_listing", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("iterate_listings", err)
	}
	return listings, nil
}
