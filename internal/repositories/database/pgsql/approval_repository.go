package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

const taskColumns = `
	task_id, organization_id, journal_id, voucher_type, current_step, total_steps,
	status, notes, history, created_at, created_by, last_updated_at, last_updated_by`

func scanTask(row pgx.Row) (*domain.ApprovalTask, error) {
	var t domain.ApprovalTask
	err := row.Scan(
		&t.TaskID,
		&t.OrganizationID,
		&t.JournalID,
		&t.VoucherType,
		&t.CurrentStep,
		&t.TotalSteps,
		&t.Status,
		&t.Notes,
		&t.History,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindPendingTask returns the pending task of a journal.
func (c *conn) FindPendingTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM approval_tasks
		WHERE organization_id = $1 AND journal_id = $2 AND status = $3
		FOR UPDATE;`
	t, err := scanTask(c.q.QueryRow(ctx, query, orgID, journalID, domain.ApprovalPending))
	if err != nil {
		return nil, notFound(err, "pending approval task for journal "+journalID)
	}
	return t, nil
}

// FindLatestTask returns the most recently created task of a journal.
func (c *conn) FindLatestTask(ctx context.Context, orgID, journalID string) (*domain.ApprovalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM approval_tasks
		WHERE organization_id = $1 AND journal_id = $2
		ORDER BY created_at DESC, task_id DESC
		LIMIT 1;`
	t, err := scanTask(c.q.QueryRow(ctx, query, orgID, journalID))
	if err != nil {
		return nil, notFound(err, "approval task for journal "+journalID)
	}
	return t, nil
}

func (c *conn) SaveTask(ctx context.Context, t *domain.ApprovalTask) error {
	query := `INSERT INTO approval_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`
	_, err := c.q.Exec(ctx, query,
		t.TaskID,
		t.OrganizationID,
		t.JournalID,
		t.VoucherType,
		t.CurrentStep,
		t.TotalSteps,
		t.Status,
		t.Notes,
		t.History,
		t.CreatedAt,
		t.CreatedBy,
		t.LastUpdatedAt,
		t.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pending approval task for journal %s", apperrors.ErrDuplicate, t.JournalID)
		}
		return fmt.Errorf("insert approval task %s: %w", t.TaskID, err)
	}
	return nil
}

func (c *conn) UpdateTask(ctx context.Context, t *domain.ApprovalTask) error {
	query := `
		UPDATE approval_tasks
		SET current_step = $2, status = $3, notes = $4, history = $5, last_updated_at = $6, last_updated_by = $7
		WHERE task_id = $1;
	`
	tag, err := c.q.Exec(ctx, query, t.TaskID, t.CurrentStep, t.Status, t.Notes, t.History, t.LastUpdatedAt, t.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("update approval task %s: %w", t.TaskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approval task %s: %w", t.TaskID, apperrors.ErrNotFound)
	}
	return nil
}
