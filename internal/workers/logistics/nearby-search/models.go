// internal/workers/logistics/nearby-search/models.go
package nearbysearch

import "wastematch/internal/logistics"

type Input struct {
	Keywords  string  `json:"keywords,omitempty"` // defaults to config when empty
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Output struct {
	Facilities []logistics.Place `json:"facilities"`
	Count      int               `json:"count"`
	SearchedAt string            `json:"searchedAt"` // ISO 8601
}
