// internal/workers/matching/generate-embedding/models.go
package generateembedding

type Input struct {
	ListingID string `json:"listingId"`
}

type Output struct {
	ListingID          string `json:"listingId"`
	EmbeddingAvailable bool   `json:"embeddingAvailable"`
	Dimensions         int    `json:"dimensions,omitempty"`
	GeneratedAt        string `json:"generatedAt"` // ISO 8601
}
