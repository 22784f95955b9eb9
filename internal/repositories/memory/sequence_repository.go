package memory

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (v *view) NextValue(ctx context.Context, scope domain.SequenceScope) (int64, error) {
	var next int64
	err := v.do(ctx, func(d *data) error {
		d.sequences[scope]++
		next = d.sequences[scope]
		return nil
	})
	return next, err
}
