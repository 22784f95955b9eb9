package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes exposed to API clients.
const (
	CodeValidation        = "VCH-400"
	CodeNotFound          = "VCH-404"
	CodeConflict          = "VCH-409"
	CodeInvalidState      = "VCH-422"
	CodePeriodClosed      = "VCH-002"
	CodeImbalanced        = "GL-001"
	CodeInsufficientStock = "INV-001"
	CodeConfiguration     = "CFG-001"
	CodeApprovalPending   = "APR-001"
	CodeSequence          = "SEQ-001"
	CodeInfrastructure    = "SYS-503"
	CodeInternal          = "SYS-500"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the stored state changed since it was read.
var ErrConflict = errors.New("concurrency conflict")

// ErrInvalidState indicates the requested transition is not allowed from the current status.
var ErrInvalidState = errors.New("invalid state transition")

// ErrImbalanced indicates total debits do not equal total credits.
var ErrImbalanced = errors.New("imbalanced entry")

// ErrPeriodClosed indicates no open accounting period covers the journal date.
var ErrPeriodClosed = errors.New("no open accounting period for date")

// ErrInsufficientStock indicates a posting would drive a resource below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrConfiguration indicates a voucher schema/configuration could not be resolved safely.
var ErrConfiguration = errors.New("invalid voucher configuration")

// ErrApprovalPending indicates posting is blocked by an unresolved approval task.
var ErrApprovalPending = errors.New("approval pending")

// ErrInfrastructure indicates a retryable storage or transport failure.
var ErrInfrastructure = errors.New("infrastructure failure")

// ErrInternal indicates an unexpected failure.
var ErrInternal = errors.New("internal error")

// FieldErrors maps a field name (or lines[i].field) to human readable messages.
type FieldErrors map[string][]string

// Add appends a message for the given field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Merge copies all messages from other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for k, msgs := range other {
		f[k] = append(f[k], msgs...)
	}
}

// AppError is the error type surfaced at the service boundary.
type AppError struct {
	Code      string
	Status    int
	Message   string
	Fields    FieldErrors
	Retryable bool
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an AppError against the sentinel for its code.
func (e *AppError) Is(target error) bool {
	s, ok := sentinelByCode[e.Code]
	return ok && s == target
}

var sentinelByCode = map[string]error{
	CodeValidation:        ErrValidation,
	CodeNotFound:          ErrNotFound,
	CodeConflict:          ErrConflict,
	CodeInvalidState:      ErrInvalidState,
	CodePeriodClosed:      ErrPeriodClosed,
	CodeImbalanced:        ErrImbalanced,
	CodeInsufficientStock: ErrInsufficientStock,
	CodeConfiguration:     ErrConfiguration,
	CodeApprovalPending:   ErrApprovalPending,
	CodeSequence:          ErrInfrastructure,
	CodeInfrastructure:    ErrInfrastructure,
	CodeInternal:          ErrInternal,
}

// NewAppError creates a new AppError with an HTTP status and a wrapped cause.
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Code: code, Status: status, Message: message, Err: err}
}

// NewValidationError reports field level validation failures.
func NewValidationError(fields FieldErrors) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Status:  http.StatusBadRequest,
		Message: "voucher failed validation",
		Fields:  fields,
	}
}

// NewNotFoundError creates a not found error with a message.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

// NewConflictError reports an optimistic concurrency or duplicate-request conflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Status: http.StatusConflict, Message: message}
}

// NewInvalidStateError reports a forbidden status transition.
func NewInvalidStateError(message string) *AppError {
	return &AppError{Code: CodeInvalidState, Status: http.StatusUnprocessableEntity, Message: message}
}

// NewImbalancedError reports debit/credit totals that do not match.
func NewImbalancedError(debit, credit string) *AppError {
	return &AppError{
		Code:    CodeImbalanced,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("imbalanced entry: total debit %s, total credit %s", debit, credit),
	}
}

// NewPeriodClosedError reports a journal date outside every open period.
func NewPeriodClosedError(date string) *AppError {
	return &AppError{
		Code:    CodePeriodClosed,
		Status:  http.StatusUnprocessableEntity,
		Message: "no open accounting period for " + date,
	}
}

// NewConfigurationError reports an unusable voucher schema.
func NewConfigurationError(message string) *AppError {
	return &AppError{Code: CodeConfiguration, Status: http.StatusUnprocessableEntity, Message: message}
}

// NewApprovalPendingError reports a post attempt on a voucher that is still
// waiting for its approval task.
func NewApprovalPendingError(taskID string, step, totalSteps int) *AppError {
	return &AppError{
		Code:    CodeApprovalPending,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("voucher is awaiting approval (task %s, step %d of %d)", taskID, step, totalSteps),
	}
}

// NewInfrastructureError wraps a retryable storage or transport failure.
func NewInfrastructureError(message string, err error) *AppError {
	return &AppError{
		Code:      CodeInfrastructure,
		Status:    http.StatusServiceUnavailable,
		Message:   message,
		Retryable: true,
		Err:       err,
	}
}

// NewSequenceError wraps a failure to issue a document number.
func NewSequenceError(err error) *AppError {
	return &AppError{
		Code:      CodeSequence,
		Status:    http.StatusServiceUnavailable,
		Message:   "failed to issue document number",
		Retryable: true,
		Err:       err,
	}
}
