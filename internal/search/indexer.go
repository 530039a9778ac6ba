// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "wastematch/internal/common/errors"
	"wastematch/internal/models"
)

// listingDocument is the shape stored in the listing index. The
// embedding field is mapped as dense_vector so kNN queries can run
// against it.
type listingDocument struct {
	FactoryID        string    `json:"factory_id"`
	FactoryName      string    `json:"factory_name,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	WasteType        string    `json:"waste_type"`
	AvgQuantity      string    `json:"avg_quantity"`
	Hazardous        bool      `json:"hazardous"`
	StorageCondition string    `json:"storage_condition"`
	Embedding        []float64 `json:"embedding,omitempty"`
}

// ListingIndexer writes listings into the Elasticsearch index used by
// VectorSearch. Postgres stays the source of truth; the index is a
// projection that can be rebuilt from it at any time.
type ListingIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewListingIndexer(client *elasticsearch.Client, index string) *ListingIndexer {
	return &ListingIndexer{client: client, index: index}
}

// IndexListing upserts the listing document keyed by listing ID.
func (i *ListingIndexer) IndexListing(ctx context.Context, listing models.Listing) error {
	doc := listingDocument{
		FactoryID:        listing.FactoryID,
		FactoryName:      listing.FactoryName,
		City:             listing.City,
		State:            listing.State,
		WasteType:        listing.WasteType,
		AvgQuantity:      listing.AvgQuantity,
		Hazardous:        listing.Hazardous,
		StorageCondition: listing.StorageCondition,
		Embedding:        listing.Embedding,
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(doc); err != nil {
		return fmt.Errorf("encode listing document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		&body,
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(listing.ID),
	)
	if err != nil {
		return apperrors.NewVectorSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewVectorSearchFailedError(fmt.Errorf("index returned %s", res.Status()))
	}
	return nil
}
