// Package errors provides standardized error handling for the ordering agent and its workers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Conversation errors
const (
	ErrCodeBudgetUnparsable     ErrorCode = "BUDGET_UNPARSABLE"
	ErrCodeNoMatchingItem       ErrorCode = "NO_MATCHING_ITEM"
	ErrCodeUpstreamTimeout      ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamFailure      ErrorCode = "UPSTREAM_FAILURE"
	ErrCodeUnclassifiableIntent ErrorCode = "UNCLASSIFIABLE_INTENT"
	ErrCodeSessionStoreFailed   ErrorCode = "SESSION_STORE_FAILED"
)

// Catalog and order errors
const (
	ErrCodeCatalogUnavailable     ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeOrderValidationFailed  ErrorCode = "ORDER_VALIDATION_FAILED"
	ErrCodeOrderBookingFailed     ErrorCode = "ORDER_BOOKING_FAILED"
	ErrCodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeNoPendingOrder         ErrorCode = "NO_PENDING_ORDER"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
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

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewBudgetUnparsableError is returned when no digit run is found in the budget summary.
func NewBudgetUnparsableError(summary string) *StandardError {
	return newError(ErrCodeBudgetUnparsable, "Budget amount could not be parsed", fmt.Sprintf("summary: %q", summary), false, nil)
}

// NewNoMatchingItemError is returned when no catalog item fits the preference and budget.
func NewNoMatchingItemError(budget float64) *StandardError {
	return newError(ErrCodeNoMatchingItem, "No menu item matches preference and budget", fmt.Sprintf("budget: %g", budget), false, nil).
		WithMetadata("budget", budget)
}

// NewUpstreamTimeoutError wraps a collaborator call that exceeded its deadline.
func NewUpstreamTimeoutError(collaborator, operation string, err error) *StandardError {
	return newError(ErrCodeUpstreamTimeout, fmt.Sprintf("%s.%s timed out", collaborator, operation), errDetails(err), true, err).
		WithMetadata("collaborator", collaborator).
		WithMetadata("operation", operation)
}

// NewUpstreamFailureError wraps a collaborator call that failed.
func NewUpstreamFailureError(collaborator, operation string, err error) *StandardError {
	return newError(ErrCodeUpstreamFailure, fmt.Sprintf("%s.%s failed", collaborator, operation), errDetails(err), true, err).
		WithMetadata("collaborator", collaborator).
		WithMetadata("operation", operation)
}

// NewUnclassifiableIntentError guards the fall-through branch of the intent switch.
func NewUnclassifiableIntentError(intent string) *StandardError {
	return newError(ErrCodeUnclassifiableIntent, "Intent could not be handled", fmt.Sprintf("intent: %s", intent), false, nil)
}

// NewSessionStoreError wraps a session repository failure.
func NewSessionStoreError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error", errDetails(err), true, err)
}

func NewCatalogUnavailableError(err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Catalog service unavailable", errDetails(err), true, err)
}

func NewOrderValidationFailedError(details string) *StandardError {
	return newError(ErrCodeOrderValidationFailed, "Order payload validation failed", details, false, nil)
}

func NewOrderBookingFailedError(err error) *StandardError {
	return newError(ErrCodeOrderBookingFailed, "Order booking failed", errDetails(err), true, err)
}

func NewOrderNotFoundError(orderID string) *StandardError {
	return newError(ErrCodeOrderNotFound, "Order not found", fmt.Sprintf("orderId: %s", orderID), false, nil)
}

func NewNoPendingOrderError(sessionKey string) *StandardError {
	return newError(ErrCodeNoPendingOrder, "Session has no pending order", fmt.Sprintf("session: %s", sessionKey), false, nil)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %s", channel, errDetails(err)), true, err)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), errDetails(err), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), errDetails(err), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false, nil)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion
// ==========================

// GetRetryCount returns the recommended retry count for a job failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogUnavailable,
		ErrCodeOrderBookingFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeUpstreamFailure,
		ErrCodeSessionStoreFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case ErrCodeUpstreamTimeout, "TIMEOUT_ERROR":
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
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

// HTTPStatus maps an error code onto the status code the transport answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeOrderValidationFailed, ErrCodeNoPendingOrder:
		return http.StatusBadRequest
	case ErrCodeOrderNotFound, "RESOURCE_NOT_FOUND":
		return http.StatusNotFound
	case ErrCodeUpstreamTimeout, "TIMEOUT_ERROR":
		return http.StatusGatewayTimeout
	case ErrCodeCatalogUnavailable, ErrCodeOrderBookingFailed, ErrCodeUpstreamFailure, "EXTERNAL_SERVICE_ERROR":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard extracts a *StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "INTENT"):
		return "AI"
	case strings.Contains(codeStr, "BUDGET") || strings.Contains(codeStr, "MATCHING"):
		return "CONVERSATION"
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "ORDER"):
		return "ORDERING"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
