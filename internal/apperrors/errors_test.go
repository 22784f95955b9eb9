package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("posting failed: %w", NewImbalancedError("100", "90"))

	assert.ErrorIs(t, err, ErrImbalanced)
	assert.NotErrorIs(t, err, ErrPeriodClosed)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, CodeImbalanced, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		status    int
		retryable bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, CodeConflict, http.StatusConflict, false},
		{"serialization failure", fmt.Errorf("save: %w", &pgconn.PgError{Code: "40001"}), CodeInfrastructure, http.StatusServiceUnavailable, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, CodeInfrastructure, http.StatusServiceUnavailable, true},
		{"deadline", context.DeadlineExceeded, CodeInfrastructure, http.StatusServiceUnavailable, true},
		{"wrapped period", fmt.Errorf("x: %w", ErrPeriodClosed), CodePeriodClosed, http.StatusUnprocessableEntity, false},
		{"stock text", errors.New("Insufficient stock for item 42"), CodeInsufficientStock, http.StatusUnprocessableEntity, false},
		{"not found", fmt.Errorf("journal: %w", ErrNotFound), CodeNotFound, http.StatusNotFound, false},
		{"approval pending", fmt.Errorf("post: %w", ErrApprovalPending), CodeApprovalPending, http.StatusConflict, false},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.retryable, got.Retryable)
		})
	}
}

func TestApprovalPendingError(t *testing.T) {
	err := fmt.Errorf("post: %w", NewApprovalPendingError("task-7", 2, 3))

	assert.ErrorIs(t, err, ErrApprovalPending)
	got := Classify(err)
	assert.Equal(t, CodeApprovalPending, got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Contains(t, got.Message, "step 2 of 3")
}

func TestClassifyKeepsAppError(t *testing.T) {
	orig := NewValidationError(FieldErrors{"date": {"This field is required."}})
	got := Classify(fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, got)
	assert.Nil(t, Classify(nil))
}

func TestFieldErrorsMerge(t *testing.T) {
	f := FieldErrors{}
	f.Add("date", "required")
	f.Merge(FieldErrors{"date": {"invalid"}, "lines[0].account": {"unknown account"}})
	assert.Equal(t, []string{"required", "invalid"}, f["date"])
	assert.Len(t, f, 2)
}
