package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used when a dependency (payment provider, PDF renderer) is not configured
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
	// ErrCodeUpstream is used when an external provider call failed
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeValidationLength   = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountLocked      = "ERR_ACCOUNT_LOCKED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeBusinessRule       = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeEmptyCart          = "ERR_EMPTY_CART"
	ErrCodeCartFull           = "ERR_CART_FULL"
	ErrCodeProductUnavailable = "ERR_PRODUCT_UNAVAILABLE"
	ErrCodeMethodUnavailable  = "ERR_PAYMENT_METHOD_UNAVAILABLE"
	ErrCodeRefundRequired     = "ERR_REFUND_REQUIRED"
)

// Input error codes
const (
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeMethodNotAllowed    = "ERR_METHOD_NOT_ALLOWED"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeInvalidSignature    = "ERR_INVALID_SIGNATURE"
	ErrCodeInvalidPayload      = "ERR_INVALID_PAYLOAD"
	ErrCodePayloadTooLarge     = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedCurrency = "ERR_UNSUPPORTED_CURRENCY"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
	ErrCodeUpstream:    http.StatusBadGateway,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	"ERR_TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusLocked,
	ErrCodeInvalidSignature:   http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	"ERR_ITEM_NOT_IN_CART":     http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeEmptyCart:           http.StatusUnprocessableEntity,
	ErrCodeCartFull:            http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable:  http.StatusUnprocessableEntity,
	ErrCodeMethodUnavailable:   http.StatusUnprocessableEntity,
	ErrCodeRefundRequired:      http.StatusUnprocessableEntity,
	"ERR_REFUND_NOT_ALLOWED":   http.StatusUnprocessableEntity,
	"ERR_NOT_PAID":             http.StatusUnprocessableEntity,
	"ERR_BASE_CURRENCY_RATE":   http.StatusUnprocessableEntity,
	"ERR_IMAGE_REQUIRED":       http.StatusUnprocessableEntity,
	"ERR_TOO_MANY_IMAGES":      http.StatusUnprocessableEntity,
	"ERR_TOO_MANY_PRODUCTS":    http.StatusUnprocessableEntity,
	"ERR_INVOICES_DISABLED":    http.StatusServiceUnavailable,
	"ERR_PAYMENT_PROVIDER":     http.StatusBadGateway,
	"ERR_UNSUPPORTED_MEDIA":    http.StatusBadRequest,
	ErrCodeUnsupportedCurrency: http.StatusBadRequest,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeInvalidPayload:   http.StatusBadRequest,
	ErrCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Field-level input codes (ERR_INVALID_*) that are not listed map to 400; anything else unknown maps to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes whose API code differs from "ERR_" + code
var DomainErrorCodeMapping = map[string]string{
	"INTERNAL_ERROR":         ErrCodeInternal,
	"PASSWORD_HASH_ERROR":    ErrCodeInternal,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"PAYMENT_PROVIDER_ERROR": "ERR_PAYMENT_PROVIDER",
	"UNSUPPORTED_MEDIA_TYPE": "ERR_UNSUPPORTED_MEDIA",
}

// NormalizeErrorCode converts a domain error code to the API's ERR_ format.
// Codes already in that format are returned unchanged.
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
