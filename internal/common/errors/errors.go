// Package errors provides the error taxonomy of the scope pipeline and its
// mapping onto HTTP responses and BPMN job outcomes.
package errors

import (
	stderrors "errors"
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

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeCaseNotFound          ErrorCode = "CASE_NOT_FOUND"
	ErrCodeCaseLookupFailed      ErrorCode = "CASE_LOOKUP_FAILED"
	ErrCodeGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE"
	ErrCodeRequestCanceled       ErrorCode = "REQUEST_CANCELED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is reported when the caller went away before a
// result was produced.
const StatusClientClosedRequest = 499

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns the error.
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
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationError reports a request the caller has to fix.
func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCaseNotFoundError reports an unknown case id.
func NewCaseNotFoundError(caseID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCaseNotFound,
		Message:   "Service case not found",
		Details:   caseID,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCaseLookupFailedError wraps a case store failure other than "not found".
func NewCaseLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCaseLookupFailed,
		Message:   "Case lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewGenerationUnavailableError describes why a generation attempt was
// unusable. It is logged and counted, never returned to a caller.
func NewGenerationUnavailableError(reason string, err error) *StandardError {
	details := reason
	if err != nil {
		details = fmt.Sprintf("%s: %v", reason, err)
	}
	return &StandardError{
		Code:      ErrCodeGenerationUnavailable,
		Message:   "Generation unavailable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRequestCanceledError reports that the caller canceled before completion.
func NewRequestCanceledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestCanceled,
		Message:   "Request canceled",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps anything unexpected.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Classification
// ==========================

// AsStandardError extracts a StandardError from err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize returns err as a StandardError, wrapping unknown errors as internal.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// HTTPStatus maps an error onto the response status category.
func HTTPStatus(err error) int {
	switch Normalize(err).Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeCaseNotFound:
		return http.StatusNotFound
	case ErrCodeRequestCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message a caller may see. Internal failures are
// reduced to a generic text.
func PublicMessage(err error) string {
	stdErr := Normalize(err)
	switch stdErr.Code {
	case ErrCodeValidationFailed, ErrCodeCaseNotFound, ErrCodeRequestCanceled:
		return stdErr.Message
	default:
		return "internal error"
	}
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed: "SCOPE_VALIDATION_FAILED",
	ErrCodeCaseNotFound:     "SCOPE_CASE_NOT_FOUND",
	ErrCodeCaseLookupFailed: "SCOPE_CASE_LOOKUP_FAILED",
	ErrCodeRequestCanceled:  "SCOPE_REQUEST_CANCELED",
	ErrCodeInternal:         "SCOPE_INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCaseLookupFailed:
		return 3
	case ErrCodeRequestCanceled:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable && stdErr.Code != ErrCodeRequestCanceled {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: retries > 0,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsBusinessError reports whether a BPMN process is expected to model the
// error with a boundary event instead of a job incident.
func IsBusinessError(code ErrorCode) bool {
	return code == ErrCodeValidationFailed || code == ErrCodeCaseNotFound
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "CASE_"):
		return "CASE_STORE"
	case strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "CANCELED"):
		return "CALLER"
	default:
		return "OTHER"
	}
}
