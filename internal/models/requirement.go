// internal/models/requirement.go
package models

import (
	"fmt"
	"time"
)

// Priority levels for a requirement.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Requirement is a buyer's stated material need.
type Requirement struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CompanyName string    `json:"companyName,omitempty"`
	WasteType   string    `json:"wasteType"`
	Quantity    string    `json:"quantity"` // free text, unit embedded ("500 tons/month")
	Priority    string    `json:"priority"`
	Matched     bool      `json:"matched"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EmbeddingText returns the text embedded when ranking this
// requirement against listing vectors. It deliberately mirrors the
// listing side's field order.
func (r Requirement) EmbeddingText() string {
	return fmt.Sprintf("Waste Type: %s, Quantity: %s", r.WasteType, r.Quantity)
}
