// internal/workers/notification/match-alert/models.go
package matchalert

type Input struct {
	UserID             string `json:"userId"`
	RequirementID      string `json:"requirementId"`
	MatchCount         int    `json:"matchCount"`
	TopMatchFactory    string `json:"topMatchFactory,omitempty"`
	TopMatchPercentage int    `json:"topMatchPercentage,omitempty"`
	Priority           string `json:"priority,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
