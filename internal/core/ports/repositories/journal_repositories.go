package repositories

import (
	"context"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// JournalFilter narrows a journal listing.
type JournalFilter struct {
	Status      domain.JournalStatus
	VoucherType string
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindJournalByID retrieves a journal together with its lines.
	FindJournalByID(ctx context.Context, orgID, journalID string) (*domain.Journal, error)

	// FindJournalByIDForUpdate retrieves a journal and locks its row until the
	// surrounding transaction ends.
	FindJournalByIDForUpdate(ctx context.Context, orgID, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a page of journals, newest journal date first, using token-based pagination.
	// Lines are not loaded.
	ListJournals(ctx context.Context, orgID string, filter JournalFilter, limit int, nextToken *string) ([]domain.Journal, *string, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// SaveJournal persists a new journal and its lines.
	SaveJournal(ctx context.Context, journal *domain.Journal) error

	// UpdateJournal overwrites the header and replaces the lines of a journal.
	// It fails with a conflict when the stored LastUpdatedAt no longer equals expectedUpdatedAt.
	UpdateJournal(ctx context.Context, journal *domain.Journal, expectedUpdatedAt time.Time) error
}

// LedgerWriter persists general-ledger postings.
type LedgerWriter interface {
	SaveLedgerPostings(ctx context.Context, postings []domain.LedgerPosting) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	LedgerWriter
}
