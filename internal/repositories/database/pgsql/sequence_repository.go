package pgsql

import (
	"context"
	"fmt"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// NextValue upserts the scope row and returns the issued number. The row
// lock is held until the surrounding transaction ends, so numbers are
// handed out in commit order.
func (c *conn) NextValue(ctx context.Context, scope domain.SequenceScope) (int64, error) {
	query := `
		INSERT INTO sequences (organization_id, model_label, field_name, next_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (organization_id, model_label, field_name)
		DO UPDATE SET next_value = sequences.next_value + 1
		RETURNING next_value;
	`
	var value int64
	if err := c.q.QueryRow(ctx, query, scope.OrganizationID, scope.ModelLabel, scope.FieldName).Scan(&value); err != nil {
		return 0, fmt.Errorf("next value of %s.%s: %w", scope.ModelLabel, scope.FieldName, err)
	}
	return value, nil
}
