package common

import (
	"errors"
	"net/http"
)

// ErrorResponse is the API error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// CustomError carries an error code and the HTTP status it maps to.
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError creates a custom error.
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithCause returns a copy of the error carrying the given cause.
func (e *CustomError) WithCause(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// CodeOf extracts the error code, or INTERNAL_ERROR for unclassified errors.
func CodeOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// StatusOf extracts the HTTP status, or 500 for unclassified errors.
func StatusOf(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// StatusForCode maps an error code back to its HTTP status. Used where only
// the code survives, such as a serialized extraction result.
func StatusForCode(code string) int {
	for _, e := range predefinedErrors {
		if e.Code == code {
			return e.Status
		}
	}
	return http.StatusInternalServerError
}

// Error codes.
const (
	// Client errors (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeInvalidURL      = "INVALID_URL"       // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// Extraction errors (422: the page was reachable but not usable)
	ErrCodeFetchFailed       = "FETCH_FAILED"        // 422
	ErrCodeNoRecipeData      = "NO_RECIPE_DATA"      // 422
	ErrCodeAISchemaViolation = "AI_SCHEMA_VIOLATION" // 422

	// Precondition errors: distinguish disabled-by-config from misconfigured.
	ErrCodeAIDisabled   = "AI_DISABLED"    // 503
	ErrCodeAIKeyMissing = "AI_KEY_MISSING" // 503

	// Server errors (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// Predefined errors.
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrInvalidURL      = NewError(ErrCodeInvalidURL, "malformed or unsupported URL", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "request timed out", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	ErrFetchFailed       = NewError(ErrCodeFetchFailed, "failed to fetch page content", http.StatusUnprocessableEntity, nil)
	ErrNoRecipeData      = NewError(ErrCodeNoRecipeData, "no recipe data found on page", http.StatusUnprocessableEntity, nil)
	ErrAISchemaViolation = NewError(ErrCodeAISchemaViolation, "AI response did not match the output schema", http.StatusUnprocessableEntity, nil)

	ErrAIDisabled   = NewError(ErrCodeAIDisabled, "AI extraction is disabled by configuration", http.StatusServiceUnavailable, nil)
	ErrAIKeyMissing = NewError(ErrCodeAIKeyMissing, "AI extraction requires an API key", http.StatusServiceUnavailable, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "gateway timeout", http.StatusGatewayTimeout, nil)

	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "invalid image data format", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "image size exceeds limit", http.StatusBadRequest, nil)
	ErrInvalidImageType   = NewError("INVALID_IMAGE_TYPE", "unsupported image type", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled      = NewError("CACHE_DISABLED", "cache is disabled", http.StatusServiceUnavailable, nil)
	ErrAIServiceError     = NewError("AI_SERVICE_ERROR", "AI service error", http.StatusServiceUnavailable, nil)
)

var predefinedErrors = []*CustomError{
	ErrInvalidRequest, ErrInvalidURL, ErrNotFound, ErrRequestTimeout,
	ErrTooManyRequests, ErrFetchFailed, ErrNoRecipeData, ErrAISchemaViolation,
	ErrAIDisabled, ErrAIKeyMissing, ErrInternalError, ErrServiceUnavailable,
	ErrGatewayTimeout, ErrInvalidImageFormat, ErrInvalidImageSize,
	ErrInvalidImageType, ErrCacheFull, ErrCacheDisabled, ErrAIServiceError,
}
