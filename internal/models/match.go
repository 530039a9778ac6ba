// internal/models/match.go
package models

// Match is an ephemeral projection of a Listing scored against a
// Requirement. It is never persisted.
type Match struct {
	ListingID        string  `json:"listingId"`
	FactoryID        string  `json:"factoryId,omitempty"`
	FactoryName      string  `json:"factoryName,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	WasteType        string  `json:"wasteType"`
	AvgQuantity      string  `json:"avgQuantity,omitempty"`
	Hazardous        bool    `json:"hazardous"`
	StorageCondition string  `json:"storageCondition,omitempty"`
	MatchPercentage  int     `json:"matchPercentage"` // integer, clamped to [0,100]
	MatchReason      string  `json:"matchReason,omitempty"`
	CO2SavingsPerTon float64 `json:"co2SavingsPerTon"`
}

// MatchFromListing builds the listing projection of a match; score and
// reason are filled in by the ranking path.
func MatchFromListing(l Listing) Match {
	return Match{
		ListingID:        l.ID,
		FactoryID:        l.FactoryID,
		FactoryName:      l.FactoryName,
		City:             l.City,
		State:            l.State,
		WasteType:        l.WasteType,
		AvgQuantity:      l.AvgQuantity,
		Hazardous:        l.Hazardous,
		StorageCondition: l.StorageCondition,
	}
}
