package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (c *conn) SaveEvents(ctx context.Context, events []domain.IntegrationEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO outbox_events (event_id, event_type, organization_id, journal_id, voucher_type,
			payload, status, occurred_at, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, e := range events {
		batch.Queue(query, e.EventID, e.EventType, e.OrganizationID, e.JournalID, e.VoucherType,
			e.Payload, e.Status, e.OccurredAt, e.Attempts)
	}
	if err := c.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert outbox events: %w", err)
	}
	return nil
}

const eventColumns = `
	event_id, event_type, organization_id, journal_id, voucher_type, payload,
	status, occurred_at, published_at, attempts, last_error, message_id`

func scanEvent(row pgx.Row) (*domain.IntegrationEvent, error) {
	var e domain.IntegrationEvent
	err := row.Scan(
		&e.EventID,
		&e.EventType,
		&e.OrganizationID,
		&e.JournalID,
		&e.VoucherType,
		&e.Payload,
		&e.Status,
		&e.OccurredAt,
		&e.PublishedAt,
		&e.Attempts,
		&e.LastError,
		&e.MessageID,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ClaimPending locks up to limit pending events, oldest first. Rows locked by
// another relay are skipped.
func (c *conn) ClaimPending(ctx context.Context, limit int) ([]domain.IntegrationEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM outbox_events
		WHERE status = $1
		ORDER BY occurred_at, event_id
		LIMIT $2
		FOR UPDATE SKIP LOCKED;`
	rows, err := c.q.Query(ctx, query, domain.OutboxPending, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	var out []domain.IntegrationEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return out, nil
}

// ClaimEvent locks one pending event. An event that is no longer pending, or
// is locked by a relay pass, is reported as not found.
func (c *conn) ClaimEvent(ctx context.Context, eventID string) (*domain.IntegrationEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM outbox_events
		WHERE event_id = $1 AND status = $2
		FOR UPDATE SKIP LOCKED;`
	e, err := scanEvent(c.q.QueryRow(ctx, query, eventID, domain.OutboxPending))
	if err != nil {
		return nil, notFound(err, "pending outbox event "+eventID)
	}
	return e, nil
}

func (c *conn) MarkPublished(ctx context.Context, eventID, messageID string, at time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $2, message_id = $3, published_at = $4, attempts = attempts + 1, last_error = ''
		WHERE event_id = $1;
	`
	return c.updateEvent(ctx, eventID, query, domain.OutboxPublished, messageID, at)
}

func (c *conn) MarkFailed(ctx context.Context, eventID, lastError string, dead bool) error {
	status := domain.OutboxPending
	if dead {
		status = domain.OutboxDead
	}
	query := `
		UPDATE outbox_events
		SET status = $2, last_error = $3, attempts = attempts + 1
		WHERE event_id = $1;
	`
	return c.updateEvent(ctx, eventID, query, status, lastError)
}

func (c *conn) updateEvent(ctx context.Context, eventID, query string, args ...any) error {
	tag, err := c.q.Exec(ctx, query, append([]any{eventID}, args...)...)
	if err != nil {
		return fmt.Errorf("update outbox event %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox event %s: %w", eventID, apperrors.ErrNotFound)
	}
	return nil
}
