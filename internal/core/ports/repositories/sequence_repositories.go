package repositories

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// SequenceRepository issues sequence numbers.
type SequenceRepository interface {
	// NextValue returns the next number of the scope, creating the scope at 1.
	// The scope row stays locked until the surrounding transaction ends.
	NextValue(ctx context.Context, scope domain.SequenceScope) (int64, error)
}
