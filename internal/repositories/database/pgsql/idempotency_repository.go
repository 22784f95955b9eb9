package pgsql

import (
	"context"
	"fmt"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (c *conn) FindRecord(ctx context.Context, orgID, operation, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT organization_id, operation, idempotency_key, journal_id, deferred, created_at
		FROM idempotency_records
		WHERE organization_id = $1 AND operation = $2 AND idempotency_key = $3;
	`
	var r domain.IdempotencyRecord
	err := c.q.QueryRow(ctx, query, orgID, operation, key).Scan(
		&r.OrganizationID, &r.Operation, &r.Key, &r.JournalID, &r.Deferred, &r.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "idempotency record "+operation+"/"+key)
	}
	return &r, nil
}

// SaveRecord stores a record. The primary key rejects a second record for the same key.
func (c *conn) SaveRecord(ctx context.Context, r domain.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_records (organization_id, operation, idempotency_key, journal_id, deferred, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := c.q.Exec(ctx, query, r.OrganizationID, r.Operation, r.Key, r.JournalID, r.Deferred, r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, r.Key)
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}
