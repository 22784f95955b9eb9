package repositories

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// ApprovalReader defines read operations for approval tasks
type ApprovalReader interface {
	// FindPendingTask returns the pending task of a journal, or ErrNotFound.
	FindPendingTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error)

	// FindLatestTask returns the most recently created task of a journal, or ErrNotFound.
	FindLatestTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error)
}

// ApprovalWriter defines write operations for approval tasks
type ApprovalWriter interface {
	SaveTask(ctx context.Context, task *domain.ApprovalTask) error
	UpdateTask(ctx context.Context, task *domain.ApprovalTask) error
}

// ApprovalRepositoryFacade combines approval reads and writes.
type ApprovalRepositoryFacade interface {
	ApprovalReader
	ApprovalWriter
}
