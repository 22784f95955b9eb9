package repositories

import (
	"context"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// OutboxWriter records integration events.
type OutboxWriter interface {
	SaveEvents(ctx context.Context, events []domain.IntegrationEvent) error

	// MarkPublished records a successful publish.
	MarkPublished(ctx context.Context, eventID, messageID string, at time.Time) error

	// MarkFailed records a failed publish attempt. dead moves the event out of the pending set.
	MarkFailed(ctx context.Context, eventID, lastError string, dead bool) error
}

// OutboxReader selects events waiting to be published.
type OutboxReader interface {
	// ClaimPending returns up to limit pending events, oldest first. Inside a
	// transaction the rows stay locked and are skipped by concurrent claimers.
	ClaimPending(ctx context.Context, limit int) ([]domain.IntegrationEvent, error)

	// ClaimEvent locks a single pending event. It fails with ErrNotFound when
	// the event was already published or another claimer holds it.
	ClaimEvent(ctx context.Context, eventID string) (*domain.IntegrationEvent, error)
}

// OutboxRepositoryFacade combines outbox reads and writes.
type OutboxRepositoryFacade interface {
	OutboxReader
	OutboxWriter
}
