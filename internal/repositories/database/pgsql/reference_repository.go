package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
)

// ReferenceExists checks the chart of accounts or a dimension kind for an active code.
func (c *conn) ReferenceExists(ctx context.Context, orgID, target, code string) (bool, error) {
	var exists bool
	var err error
	if target == portsrepo.TargetAccount {
		err = c.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE organization_id = $1 AND code = $2 AND is_active)`,
			orgID, code).Scan(&exists)
	} else {
		err = c.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM dimensions WHERE organization_id = $1 AND kind = $2 AND code = $3 AND is_active)`,
			orgID, target, code).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check %s %s: %w", target, code, err)
	}
	return exists, nil
}

// FindOpenPeriod returns the open period containing date.
func (c *conn) FindOpenPeriod(ctx context.Context, orgID string, date time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT period_id, organization_id, name, start_date, end_date, status
		FROM accounting_periods
		WHERE organization_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
		ORDER BY start_date
		LIMIT 1
		FOR SHARE;
	`
	var p domain.AccountingPeriod
	day := domain.TruncateToDate(date)
	err := c.q.QueryRow(ctx, query, orgID, domain.PeriodOpen, day).Scan(
		&p.PeriodID, &p.OrganizationID, &p.Name, &p.StartDate, &p.EndDate, &p.Status,
	)
	if err != nil {
		return nil, notFound(err, "open period for "+day.Format(domain.DateLayout))
	}
	return &p, nil
}
