package apperrors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes that map onto the taxonomy.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgCheckViolation       = "23514"
)

// Classify maps any error onto an AppError with a stable code. Errors that are
// already AppErrors are returned unchanged.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPg(pgErr, err)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewInfrastructureError("request timed out", err)
	case errors.Is(err, ErrNotFound):
		return &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return &AppError{Code: CodeConflict, Status: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, ErrValidation):
		return &AppError{Code: CodeValidation, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, ErrImbalanced):
		return &AppError{Code: CodeImbalanced, Status: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	case errors.Is(err, ErrPeriodClosed):
		return &AppError{Code: CodePeriodClosed, Status: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	case errors.Is(err, ErrInsufficientStock):
		return &AppError{Code: CodeInsufficientStock, Status: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	case errors.Is(err, ErrConfiguration):
		return &AppError{Code: CodeConfiguration, Status: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	case errors.Is(err, ErrApprovalPending):
		return &AppError{Code: CodeApprovalPending, Status: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, ErrInvalidState):
		return &AppError{Code: CodeInvalidState, Status: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	case errors.Is(err, ErrInfrastructure):
		return NewInfrastructureError(err.Error(), err)
	}

	// Lower layers outside our control report stock shortages only as text.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient stock") || strings.Contains(msg, "insufficient quantity") || strings.Contains(msg, "negative stock") {
		return &AppError{Code: CodeInsufficientStock, Status: http.StatusUnprocessableEntity, Message: "insufficient stock", Err: err}
	}

	return &AppError{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal error", Err: err}
}

func classifyPg(pgErr *pgconn.PgError, err error) *AppError {
	switch {
	case pgErr.Code == pgUniqueViolation:
		return &AppError{Code: CodeConflict, Status: http.StatusConflict, Message: "resource already exists", Err: errors.Join(ErrDuplicate, err)}
	case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected, pgErr.Code == pgLockNotAvailable:
		return NewInfrastructureError("concurrent update, retry the request", err)
	case pgErr.Code == pgCheckViolation && strings.Contains(pgErr.ConstraintName, "stock"):
		return &AppError{Code: CodeInsufficientStock, Status: http.StatusUnprocessableEntity, Message: "insufficient stock", Err: err}
	case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
		return NewInfrastructureError("database unavailable", err)
	}
	return &AppError{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "database error", Err: err}
}

// IsRetryable reports whether the caller may safely retry the request.
func IsRetryable(err error) bool {
	appErr := Classify(err)
	return appErr != nil && appErr.Retryable
}
