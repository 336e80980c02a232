package model

import (
	"errors"
	"fmt"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrConflict   ErrorCode = "CONFLICT"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the interviewd API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// ConfigurationError reports invalid engine configuration. It is raised when
// configuration is loaded, never at request time.
type ConfigurationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s (got %v)", e.Field, e.Message, e.Value)
}

// NoEligibleInterviewerError is returned when every claimant of a resource,
// or every interviewer for a round, is blocked by eligibility rules. It is
// surfaced to the operator queue, not retried automatically.
type NoEligibleInterviewerError struct {
	RoundID   string
	RequestID string
	Detail    string
}

func (e *NoEligibleInterviewerError) Error() string {
	return fmt.Sprintf("no eligible interviewer for round %s (request %s): %s", e.RoundID, e.RequestID, e.Detail)
}

// CapacityExceededError refuses an assignment against an interviewer at or
// above the capacity threshold. The caller must pick the next-ranked
// eligible interviewer.
type CapacityExceededError struct {
	InterviewerID string
	Load          float64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("interviewer %s at %.0f%% load refuses further assignment", e.InterviewerID, e.Load)
}

// SwapExhaustedError reports that no backup candidate met the swap criteria.
// The vacancy is surfaced for manual rescheduling, never auto-dropped.
type SwapExhaustedError struct {
	InterviewID string
	RoundID     string
}

func (e *SwapExhaustedError) Error() string {
	return fmt.Sprintf("no backup candidate available for interview %s (round %s)", e.InterviewID, e.RoundID)
}

// InvalidTransitionError is returned when a requested interview state
// transition is not legal.
type InvalidTransitionError struct {
	InterviewID string
	From        InterviewState
	To          InterviewState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid interview state transition: %s -> %s (interview %s)", e.From, e.To, e.InterviewID)
}

// ErrDuplicateTransition marks a re-delivered transition to the state the
// interview is already in. Callers treat it as a silent no-op since event
// delivery may repeat.
var ErrDuplicateTransition = errors.New("duplicate transition")
