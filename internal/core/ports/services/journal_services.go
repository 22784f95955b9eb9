package services

import (
	"context"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
)

// VoucherReaderSvc defines read operations for vouchers
type VoucherReaderSvc interface {
	// GetJournal retrieves a journal with its lines.
	GetJournal(ctx context.Context, orgID, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a paginated list of journals of an organization.
	ListJournals(ctx context.Context, orgID string, params dto.ListVouchersParams) (*dto.ListVouchersResponse, error)
}

// VoucherWriterSvc defines the lifecycle operations of a voucher
type VoucherWriterSvc interface {
	// CreateDraft validates a payload and stores it as a DRAFT journal. Unbalanced drafts are allowed.
	CreateDraft(ctx context.Context, orgID string, payload dto.VoucherPayload, userID string) (*dto.PostingResult, error)

	// UpdateDraft replaces the header and lines of a DRAFT or SUBMITTED journal.
	UpdateDraft(ctx context.Context, orgID, journalID string, req dto.UpdateVoucherRequest, userID string) (*dto.PostingResult, error)

	// Submit moves a balanced DRAFT to SUBMITTED and opens an approval task when required.
	Submit(ctx context.Context, orgID, journalID string, expectedUpdatedAt *time.Time, idemKey, userID string) (*dto.PostingResult, error)

	// Post posts a stored journal, or defers it to approval.
	Post(ctx context.Context, orgID, journalID string, expectedUpdatedAt *time.Time, idemKey, userID string) (*dto.PostingResult, error)

	// PostPayload validates and posts a payload in one step.
	PostPayload(ctx context.Context, orgID string, payload dto.VoucherPayload, idemKey, userID string) (*dto.PostingResult, error)

	// Cancel moves a DRAFT journal to CANCELLED.
	Cancel(ctx context.Context, orgID, journalID string, expectedUpdatedAt *time.Time, userID string) (*dto.PostingResult, error)

	// Reverse posts a counter-journal for a POSTED journal and marks the original REVERSED.
	Reverse(ctx context.Context, orgID, journalID string, reversalDate *time.Time, userID string) (*dto.PostingResult, error)
}

// ApprovalSvc defines the decisions taken on approval tasks
type ApprovalSvc interface {
	// Approve records an approval of the current step. Approving the final
	// step posts the journal in the same transaction.
	Approve(ctx context.Context, orgID, journalID, notes, userID string) (*dto.PostingResult, error)

	// Reject ends the pending task and returns the journal to DRAFT.
	Reject(ctx context.Context, orgID, journalID, notes, userID string) (*dto.PostingResult, error)

	// GetTask returns the latest approval task of a journal.
	GetTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error)
}

// PostingSvcFacade combines all voucher-related service interfaces
// This is a facade for clients that need access to all operations
type PostingSvcFacade interface {
	VoucherReaderSvc
	VoucherWriterSvc
	ApprovalSvc
}

// SequenceSvc issues numbers from named sequences.
type SequenceSvc interface {
	// Next returns the next value of (orgID, modelLabel, fieldName). An empty orgID is the global scope.
	Next(ctx context.Context, orgID, modelLabel, fieldName string) (int64, error)
}
