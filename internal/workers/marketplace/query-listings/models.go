// internal/workers/marketplace/query-listings/models.go
package querylistings

import "wastematch/internal/models"

type Input struct {
	WasteType string `json:"wasteType,omitempty"` // optional material filter
	City      string `json:"city,omitempty"`      // optional location filter
}

// ListingView is a listing enriched with its estimated CO2 savings for
// the marketplace page.
type ListingView struct {
	models.Listing
	CO2SavingsPerTon float64 `json:"co2SavingsPerTon"`
}

type Output struct {
	Listings []ListingView `json:"listings"`
	Count    int           `json:"count"`
	Source   string        `json:"source"` // "cache" or "database"
}

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)
