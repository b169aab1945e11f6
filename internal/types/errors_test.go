package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidTGC,
		Message: "growth model tgc_value must be positive",
	}

	expected := "validation_invalid_tgc: growth model tgc_value must be positive"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorUnwrap verifies the error chain support via Unwrap.
func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("database connection failed")
	appErr := &AppError{
		Code:    ErrCodeInternalDB,
		Message: "failed to query projection rows",
		Err:     underlying,
	}

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() returned unexpected error: got %v, want %v", appErr.Unwrap(), underlying)
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from a chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeConfigNoScenario,
		Message: "no scenario available for batch",
	}
	wrappedErr := fmt.Errorf("recompute failed: %w", appErr)

	var extracted *AppError
	if !errors.As(wrappedErr, &extracted) {
		t.Fatal("errors.As failed to extract *AppError from chain")
	}
	if extracted.Code != ErrCodeConfigNoScenario {
		t.Errorf("extracted code = %q, want %q", extracted.Code, ErrCodeConfigNoScenario)
	}
}

// TestErrorCodeHTTPStatus verifies the prefix-based status mapping for all
// engine error families.
func TestErrorCodeHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidWeight, http.StatusBadRequest},
		{ErrCodeValidationInvalidHorizon, http.StatusBadRequest},
		{ErrCodeConfigNoScenario, http.StatusUnprocessableEntity},
		{ErrCodeConfigNoMortalityModel, http.StatusUnprocessableEntity},
		{ErrCodeDataGapProfileTemperature, http.StatusUnprocessableEntity},
		{ErrCodeDataGapObservedState, http.StatusUnprocessableEntity},
		{ErrCodeNotFoundAssignment, http.StatusNotFound},
		{ErrCodeNotFoundSummary, http.StatusNotFound},
		{ErrCodeUpstreamPlanner, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrorCode("something_unknown"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

// TestErrorCodeClassifiers verifies the family predicates batch callers rely
// on when deciding whether to skip an assignment or abort.
func TestErrorCodeClassifiers(t *testing.T) {
	if !ErrCodeConfigNoScenario.IsConfiguration() {
		t.Error("configuration_no_scenario should classify as configuration")
	}
	if !ErrCodeDataGapObservedState.IsDataGap() {
		t.Error("data_gap_observed_state should classify as data gap")
	}
	if !ErrCodeValidationInvalidTGC.IsValidation() {
		t.Error("validation_invalid_tgc should classify as validation")
	}
	if ErrCodeInternalDB.IsConfiguration() || ErrCodeInternalDB.IsDataGap() || ErrCodeInternalDB.IsValidation() {
		t.Error("internal_database_error should not classify as any skippable family")
	}
}

// TestWithDetailsDoesNotMutate verifies WithDetails returns a copy.
func TestWithDetailsDoesNotMutate(t *testing.T) {
	orig := NewAppErrorWithDetails(ErrCodeDataGapProfileTemperature, "missing day", nil,
		map[string]any{"day_number": 101})

	enriched := orig.WithDetails(map[string]any{"profile_id": "tp_1"})

	if _, ok := orig.Details["profile_id"]; ok {
		t.Error("WithDetails mutated the original error's details")
	}
	if enriched.Details["day_number"] != 101 || enriched.Details["profile_id"] != "tp_1" {
		t.Errorf("merged details incorrect: %v", enriched.Details)
	}
}
