// Package errors provides standardized error handling for the matching workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// AsStandardError reports whether err is (or wraps) a StandardError,
// assigning it to target on success.
func AsStandardError(err error, target **StandardError) bool {
	return stderrors.As(err, target)
}

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodePostingNotFound ErrorCode = "POSTING_NOT_FOUND"
	ErrCodeNoApplicants    ErrorCode = "NO_APPLICANTS"
	ErrCodeRunInProgress   ErrorCode = "RUN_IN_PROGRESS"

	ErrCodeExtractionFailed  ErrorCode = "EXTRACTION_FAILED"
	ErrCodeResumeFetchFailed ErrorCode = "RESUME_FETCH_FAILED"
	ErrCodeMalformedInput    ErrorCode = "MALFORMED_INPUT"

	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeModelTimeout     ErrorCode = "MODEL_TIMEOUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeMatchRebuildFailed       ErrorCode = "MATCH_REBUILD_FAILED"
	ErrCodeDuplicateResult          ErrorCode = "DUPLICATE_RESULT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReportIndexFailed      ErrorCode = "REPORT_INDEX_FAILED"
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

// NewPostingNotFoundError creates a non-retryable posting lookup error.
func NewPostingNotFoundError(postingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePostingNotFound,
		Message:   "Job posting not found",
		Details:   fmt.Sprintf("postingId: %s", postingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoApplicantsError creates a non-retryable error for postings without applications.
func NewNoApplicantsError(postingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoApplicants,
		Message:   "Posting has no applications to rank",
		Details:   fmt.Sprintf("postingId: %s", postingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunInProgressError creates a retryable error for a posting whose batch run is locked.
func NewRunInProgressError(postingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunInProgress,
		Message:   "A matching run for this posting is already in progress",
		Details:   fmt.Sprintf("postingId: %s", postingID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionFailedError creates a non-retryable document extraction error.
// Extraction failures skip the candidate; retrying the same bytes will not help.
func NewExtractionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Could not extract text from resume document",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResumeFetchFailedError creates a retryable resume download error.
func NewResumeFetchFailedError(candidateID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResumeFetchFailed,
		Message:   "Failed to fetch resume document",
		Details:   fmt.Sprintf("candidateId: %s, error: %s", candidateID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedInputError creates a non-retryable input coercion error.
func NewMalformedInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedInput,
		Message:   "Input data was malformed and coerced to a default",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelUnavailableError creates a retryable model transport error.
func NewModelUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "AI analysis model unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelTimeoutError creates a retryable model timeout error.
func NewModelTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeModelTimeout,
		Message:   "AI analysis call exceeded its timeout",
		Details:   "model call exceeded the per-candidate deadline",
		Retryable: true,
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

// NewMatchRebuildFailedError creates a retryable ranked-match rebuild error.
func NewMatchRebuildFailedError(postingID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchRebuildFailed,
		Message:   "Failed to rebuild ranked matches for posting",
		Details:   fmt.Sprintf("postingId: %s, error: %s", postingID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateResultError creates a non-retryable duplicate ranked-match error.
// The delete-before-insert rebuild prevents this in the batch path; it can only
// surface when a row is inserted outside a rebuild.
func NewDuplicateResultError(postingID, candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateResult,
		Message:   "Ranked match already exists for posting and candidate",
		Details:   fmt.Sprintf("postingId: %s, candidateId: %s", postingID, candidateID),
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

// NewReportIndexFailedError creates a retryable search indexing error.
func NewReportIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportIndexFailed,
		Message:   "Failed to index match report",
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

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in '%s'", service),
		Details:   details,
		Retryable: false,
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

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (identical).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodePostingNotFound:          "POSTING_NOT_FOUND",
	ErrCodeNoApplicants:             "NO_APPLICANTS",
	ErrCodeRunInProgress:            "RUN_IN_PROGRESS",
	ErrCodeExtractionFailed:         "EXTRACTION_FAILED",
	ErrCodeResumeFetchFailed:        "RESUME_FETCH_FAILED",
	ErrCodeMalformedInput:           "MALFORMED_INPUT",
	ErrCodeModelUnavailable:         "MODEL_UNAVAILABLE",
	ErrCodeModelTimeout:             "MODEL_TIMEOUT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeMatchRebuildFailed:       "MATCH_REBUILD_FAILED",
	ErrCodeDuplicateResult:          "DUPLICATE_RESULT",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeReportIndexFailed:        "REPORT_INDEX_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeMatchRebuildFailed,
		ErrCodeResumeFetchFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeReportIndexFailed:
		return 3 // Retryable technical errors

	case ErrCodeRunInProgress,
		ErrCodeModelUnavailable:
		return 2

	case ErrCodeModelTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the workflow engine.
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
	case strings.Contains(codeStr, "POSTING") || strings.Contains(codeStr, "APPLICANTS"):
		return "POSTING"
	case strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "RESUME"):
		return "DOCUMENT"
	case strings.Contains(codeStr, "MODEL"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "MATCH") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	default:
		return "OTHER"
	}
}
