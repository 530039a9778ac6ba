// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Matching core
	ErrCodeMatchingNotConfigured ErrorCode = "MATCHING_NOT_CONFIGURED"
	ErrCodeMatchingUnavailable   ErrorCode = "MATCHING_UNAVAILABLE"
	ErrCodeLLMResponseMalformed  ErrorCode = "LLM_RESPONSE_MALFORMED"
	ErrCodeLLMTimeout            ErrorCode = "LLM_TIMEOUT"
	ErrCodeEmbeddingUnavailable  ErrorCode = "EMBEDDING_UNAVAILABLE"

	// Requirement / listing reads
	ErrCodeRequirementNotFound ErrorCode = "REQUIREMENT_NOT_FOUND"
	ErrCodeListingNotFound     ErrorCode = "LISTING_NOT_FOUND"
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"

	// Postgres
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseUpdateFailed     ErrorCode = "DATABASE_UPDATE_FAILED"

	// Elasticsearch vector search
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeVectorSearchFailed            ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	// Notifications and logistics
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeLogisticsAuthFailed    ErrorCode = "LOGISTICS_AUTH_FAILED"
	ErrCodeLogisticsLookupFailed  ErrorCode = "LOGISTICS_LOOKUP_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewMatchingNotConfiguredError signals missing AI service credentials.
// Not retryable: retrying cannot fix configuration.
func NewMatchingNotConfiguredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingNotConfigured,
		Message:   "Matching service is not configured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchingUnavailableError signals a transient LLM scoring failure.
func NewMatchingUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingUnavailable,
		Message:   "LLM match scoring unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMResponseMalformedError signals a non-JSON model response after
// fence stripping. The raw payload goes into metadata for diagnosis.
func NewLLMResponseMalformedError(rawPayload string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMResponseMalformed,
		Message:   "LLM returned a malformed scoring payload",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"rawPayload": rawPayload},
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM scoring call timed out",
		Details:   "call exceeded configured timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingUnavailableError records a degraded embedding generation.
// Callers normally continue with an empty vector instead of failing.
func NewEmbeddingUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingUnavailable,
		Message:   "Embedding service unavailable",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequirementNotFoundError creates a non-retryable lookup error.
func NewRequirementNotFoundError(requirementID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequirementNotFound,
		Message:   "Requirement not found",
		Details:   fmt.Sprintf("requirementId: %s", requirementID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewListingNotFoundError creates a non-retryable lookup error.
func NewListingNotFoundError(listingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingNotFound,
		Message:   "Listing not found",
		Details:   fmt.Sprintf("listingId: %s", listingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseUpdateFailedError creates a retryable update error.
func NewDatabaseUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseUpdateFailed,
		Message:   "Database update operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewVectorSearchFailedError creates a retryable vector search error.
// The orchestrator treats this as a fallback trigger, not a hard failure.
func NewVectorSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorSearchFailed,
		Message:   "Vector similarity search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLogisticsAuthFailedError creates a retryable logistics token error.
func NewLogisticsAuthFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLogisticsAuthFailed,
		Message:   "Logistics provider authentication failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLogisticsLookupFailedError creates a retryable logistics lookup error.
func NewLogisticsLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLogisticsLookupFailed,
		Message:   "Logistics nearby lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
// The codes are intentionally identical so workflow models can reference
// them directly in boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMatchingNotConfigured:         "MATCHING_NOT_CONFIGURED",
	ErrCodeMatchingUnavailable:           "MATCHING_UNAVAILABLE",
	ErrCodeLLMResponseMalformed:          "LLM_RESPONSE_MALFORMED",
	ErrCodeLLMTimeout:                    "LLM_TIMEOUT",
	ErrCodeEmbeddingUnavailable:          "EMBEDDING_UNAVAILABLE",
	ErrCodeRequirementNotFound:           "REQUIREMENT_NOT_FOUND",
	ErrCodeListingNotFound:               "LISTING_NOT_FOUND",
	ErrCodeValidationFailed:              "VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDatabaseUpdateFailed:          "DATABASE_UPDATE_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeVectorSearchFailed:            "VECTOR_SEARCH_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeLogisticsAuthFailed:           "LOGISTICS_AUTH_FAILED",
	ErrCodeLogisticsLookupFailed:         "LOGISTICS_LOOKUP_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMatchingUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseUpdateFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeVectorSearchFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeLogisticsAuthFailed,
		ErrCodeLogisticsLookupFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeLLMResponseMalformed:
		return 2 // Timeouts and stochastic model output

	case ErrCodeLLMTimeout:
		return 1 // Matches the BPMN boundary event

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MATCHING") || strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "EMBEDDING"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "LOGISTICS"):
		return "LOGISTICS"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	default:
		return "OTHER"
	}
}
