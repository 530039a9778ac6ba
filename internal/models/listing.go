// internal/models/listing.go
package models

import (
	"fmt"
	"time"
)

// Listing is a producer's posted waste profile available for matching.
// Embedding is nil until computed; it is regenerated whenever WasteType,
// AvgQuantity, Hazardous, or StorageCondition changes.
type Listing struct {
	ID               string    `json:"id"`
	FactoryID        string    `json:"factoryId"`
	FactoryName      string    `json:"factoryName,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	WasteType        string    `json:"wasteType"`
	AvgQuantity      string    `json:"avgQuantity"` // average monthly quantity, free text
	Unit             string    `json:"unit,omitempty"`
	Hazardous        bool      `json:"hazardous"`
	StorageCondition string    `json:"storageCondition"`
	Embedding        []float64 `json:"embedding,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// EmbeddingText returns the canonical text fed to the embedding model.
// Changing this format invalidates every stored vector, so treat it as
// part of the index schema.
func (l Listing) EmbeddingText() string {
	return fmt.Sprintf("Waste Type: %s, Quantity: %s, Hazardous: %t, Storage: %s",
		l.WasteType, l.AvgQuantity, l.Hazardous, l.StorageCondition)
}

// HasEmbedding reports whether a usable vector is attached.
func (l Listing) HasEmbedding() bool {
	return len(l.Embedding) > 0
}
