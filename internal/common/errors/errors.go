// Package errors provides standardized error handling for the delivery pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSheetsReadFailed   ErrorCode = "SHEETS_READ_FAILED"
	ErrCodeSheetsUpdateFailed ErrorCode = "SHEETS_UPDATE_FAILED"
	ErrCodeSheetsRateLimited  ErrorCode = "SHEETS_RATE_LIMITED"

	ErrCodeSMTPAuthFailed    ErrorCode = "SMTP_AUTH_FAILED"
	ErrCodeRecipientRejected ErrorCode = "RECIPIENT_REJECTED"
	ErrCodeSendFailed        ErrorCode = "SEND_FAILED"

	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateEmpty    ErrorCode = "TEMPLATE_EMPTY"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
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

// NewSheetsReadFailedError creates a non-retryable sheet read error.
func NewSheetsReadFailedError(spreadsheetID, sheetName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSheetsReadFailed,
		Message:   "Failed to read sheet",
		Details:   fmt.Sprintf("spreadsheetId: %s, sheet: %s, error: %s", spreadsheetID, sheetName, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSheetsUpdateFailedError creates a non-retryable cell update error.
func NewSheetsUpdateFailedError(row, col int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSheetsUpdateFailed,
		Message:   "Failed to update sheet cell",
		Details:   fmt.Sprintf("row: %d, col: %d, error: %s", row, col, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSheetsRateLimitedError creates a retryable rate-limit error.
func NewSheetsRateLimitedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSheetsRateLimited,
		Message:   "Sheets API rate limit exceeded",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSMTPAuthFailedError creates a non-retryable authentication error.
func NewSMTPAuthFailedError(user string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSMTPAuthFailed,
		Message:   "SMTP authentication rejected",
		Details:   fmt.Sprintf("user: %s, error: %s", user, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientRejectedError creates a non-retryable recipient error.
func NewRecipientRejectedError(to string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecipientRejected,
		Message:   "Recipient rejected by server",
		Details:   fmt.Sprintf("to: %s, error: %s", to, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSendFailedError creates a retryable transient delivery error.
func NewSendFailedError(to string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSendFailed,
		Message:   "Email delivery failed",
		Details:   fmt.Sprintf("to: %s, error: %s", to, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template lookup error.
func NewTemplateNotFoundError(clientName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "No template registered for client",
		Details:   fmt.Sprintf("clientName: %s", clientName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateEmptyError creates a non-retryable empty-template error.
func NewTemplateEmptyError(clientName, bracket string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateEmpty,
		Message:   "Template body for age bracket is empty",
		Details:   fmt.Sprintf("clientName: %s, bracket: %s", clientName, bracket),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError creates a non-retryable configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err is a StandardError marked retryable.
// Unknown error types are treated as retryable so transient transport
// failures wrapped by lower layers still get their attempts.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// CodeOf returns the code of a StandardError, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}
