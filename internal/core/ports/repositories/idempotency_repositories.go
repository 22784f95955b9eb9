package repositories

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// IdempotencyRepository stores the outcome of keyed requests.
type IdempotencyRepository interface {
	// FindRecord returns the record for (org, operation, key), or ErrNotFound.
	FindRecord(ctx context.Context, orgID, operation, key string) (*domain.IdempotencyRecord, error)

	// SaveRecord stores a record. A record that already exists yields an error wrapping ErrDuplicate.
	SaveRecord(ctx context.Context, record domain.IdempotencyRecord) error
}
