package dto

import (
	"errors"
	"net/http"

	"github.com/qclens/backend/internal/domain/agent"
	"github.com/qclens/backend/internal/domain/catalog"
	"github.com/qclens/backend/internal/domain/listing"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeValidationLength   = "ERR_VALIDATION_LENGTH"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidPlatform = "ERR_INVALID_PLATFORM"
	ErrCodeInvalidSort     = "ERR_INVALID_SORT"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Domain error codes
const (
	// ErrCodeIdentityUnresolved is returned when no item ID can be found in the input
	ErrCodeIdentityUnresolved = "ERR_IDENTITY_UNRESOLVED"
	// ErrCodeAgentNotFound is returned for an agent ID missing from the registry
	ErrCodeAgentNotFound = "ERR_AGENT_NOT_FOUND"
	ErrCodeNotFound      = "ERR_NOT_FOUND"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidPlatform: http.StatusBadRequest,
	ErrCodeInvalidSort:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeIdentityUnresolved: http.StatusUnprocessableEntity,
	ErrCodeAgentNotFound:      http.StatusNotFound,
	ErrCodeNotFound:           http.StatusNotFound,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCodeFor maps a domain error to its API error code.
// Unknown errors map to ErrCodeInternal.
func ErrorCodeFor(err error) string {
	switch {
	case errors.Is(err, listing.ErrIdentityUnresolved):
		return ErrCodeIdentityUnresolved
	case errors.Is(err, agent.ErrAgentNotFound):
		return ErrCodeAgentNotFound
	case errors.Is(err, listing.ErrInvalidPlatform):
		return ErrCodeInvalidPlatform
	case errors.Is(err, listing.ErrInvalidItemID):
		return ErrCodeValidationRequired
	case errors.Is(err, catalog.ErrInvalidSort):
		return ErrCodeInvalidSort
	default:
		return ErrCodeInternal
	}
}

// PublicMessage returns the message shown to API clients for err.
// Internal errors are never echoed back.
func PublicMessage(err error) string {
	switch ErrorCodeFor(err) {
	case ErrCodeIdentityUnresolved:
		return "Could not detect a valid product ID in the input"
	case ErrCodeAgentNotFound:
		return "Unknown agent"
	case ErrCodeInvalidPlatform:
		return "Unknown platform; expected taobao, weidian or 1688"
	case ErrCodeValidationRequired:
		return "Item ID is required"
	case ErrCodeInvalidSort:
		return "Unknown sort; expected default, sales, price_asc or price_desc"
	default:
		return "An unexpected error occurred"
	}
}
