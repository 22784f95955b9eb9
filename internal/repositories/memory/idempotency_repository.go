package memory

import (
	"context"
	"fmt"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (v *view) FindRecord(ctx context.Context, orgID, operation, key string) (*domain.IdempotencyRecord, error) {
	var out *domain.IdempotencyRecord
	err := v.do(ctx, func(d *data) error {
		r, ok := d.idem[idemKey{orgID, operation, key}]
		if !ok {
			return fmt.Errorf("idempotency record %s/%s: %w", operation, key, apperrors.ErrNotFound)
		}
		out = &r
		return nil
	})
	return out, err
}

func (v *view) SaveRecord(ctx context.Context, record domain.IdempotencyRecord) error {
	return v.do(ctx, func(d *data) error {
		k := idemKey{record.OrganizationID, record.Operation, record.Key}
		if _, ok := d.idem[k]; ok {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, record.Key)
		}
		d.idem[k] = record
		return nil
	})
}
