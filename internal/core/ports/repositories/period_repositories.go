package repositories

import (
	"context"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// PeriodReader looks up accounting periods. Periods are maintained outside the posting core.
type PeriodReader interface {
	// FindOpenPeriod returns the open period containing date, or ErrNotFound.
	FindOpenPeriod(ctx context.Context, orgID string, date time.Time) (*domain.AccountingPeriod, error)
}
