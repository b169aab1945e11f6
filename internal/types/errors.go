package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All components MUST use these constants instead of hardcoded strings.
const (
	// Validation (400) — malformed input rejected before integration begins.
	ErrCodeValidationMissingField      ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidWeight     ErrorCode = "validation_invalid_weight"
	ErrCodeValidationInvalidPopulation ErrorCode = "validation_invalid_population"
	ErrCodeValidationInvalidTGC        ErrorCode = "validation_invalid_tgc"
	ErrCodeValidationInvalidRate       ErrorCode = "validation_invalid_mortality_rate"
	ErrCodeValidationInvalidHorizon    ErrorCode = "validation_invalid_horizon"
	ErrCodeValidationInvalidJSON       ErrorCode = "validation_invalid_json"

	// Configuration (422) — no usable model configuration for an assignment.
	ErrCodeConfigNoScenario       ErrorCode = "configuration_no_scenario"
	ErrCodeConfigNoGrowthModel    ErrorCode = "configuration_no_growth_model"
	ErrCodeConfigNoMortalityModel ErrorCode = "configuration_no_mortality_model"

	// Data gaps (422) — required input data missing for the horizon.
	ErrCodeDataGapProfileTemperature ErrorCode = "data_gap_profile_temperature"
	ErrCodeDataGapObservedState      ErrorCode = "data_gap_observed_state"

	// Not Found (404)
	ErrCodeNotFoundAssignment ErrorCode = "not_found_assignment"
	ErrCodeNotFoundSummary    ErrorCode = "not_found_summary"

	// Upstream (502)
	ErrCodeUpstreamPlanner     ErrorCode = "upstream_planner_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"

	// Internal (500)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the API layer to translate AppErrors into HTTP responses.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "configuration_"), strings.HasPrefix(s, "data_gap_"):
		return http.StatusUnprocessableEntity // 422
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound // 404
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests // 429
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	case strings.HasPrefix(s, "internal_"):
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// IsConfiguration reports whether the code is a model-configuration error.
// Batch callers skip-and-log these rather than aborting the run.
func (c ErrorCode) IsConfiguration() bool {
	return strings.HasPrefix(string(c), "configuration_")
}

// IsDataGap reports whether the code is a missing-input-data error.
func (c ErrorCode) IsDataGap() bool {
	return strings.HasPrefix(string(c), "data_gap_")
}

// IsValidation reports whether the code is a malformed-input error.
func (c ErrorCode) IsValidation() bool {
	return strings.HasPrefix(string(c), "validation_")
}

// AppError is the standard application error type used throughout the engine.
// All domain and handler errors should be expressed as AppError to enable
// consistent error formatting, HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
// This is useful for adding context without mutating the original error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
