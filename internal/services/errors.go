package services

import (
	"errors"
	"fmt"

	apperrors "github.com/radcert-prep/exam-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Question/catalog specific errors
	ErrQuestionNotFound = errors.New("question not found")

	// Session specific errors
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrSessionNotActive = errors.New("exam session is not in progress")

	// Results/ranking specific errors
	ErrResultsNotAvailable = errors.New("results not available - exam not completed")
	ErrRankingNotAvailable = errors.New("ranking not available - exam not completed")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// InsufficientQuestionsError reports that the catalog cannot satisfy the
// requested exam size under the given filters. Found and Need surface to
// the caller so the UI can suggest loosening the criteria.
type InsufficientQuestionsError struct {
	Found int `json:"found"`
	Need  int `json:"need"`
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("not enough questions matching criteria: found %d, need %d", e.Found, e.Need)
}

func NewInsufficientQuestionsError(found, need int) *InsufficientQuestionsError {
	return &InsufficientQuestionsError{Found: found, Need: need}
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsNotAvailable checks if error represents a "not ready yet" condition,
// reported as an absence rather than a fault.
func IsNotAvailable(err error) bool {
	return errors.Is(err, ErrResultsNotAvailable) ||
		errors.Is(err, ErrRankingNotAvailable)
}

// IsInvalidState checks if error represents an illegal state transition
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrSessionNotActive)
}

// IsInsufficientQuestions checks if error represents an unsatisfiable
// question selection
func IsInsufficientQuestions(err error) bool {
	var ie *InsufficientQuestionsError
	return errors.As(err, &ie)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}
