package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

func (v *view) SaveEvents(ctx context.Context, events []domain.IntegrationEvent) error {
	return v.do(ctx, func(d *data) error {
		d.outbox = append(d.outbox, events...)
		return nil
	})
}

func (v *view) ClaimPending(ctx context.Context, limit int) ([]domain.IntegrationEvent, error) {
	var out []domain.IntegrationEvent
	err := v.do(ctx, func(d *data) error {
		for _, e := range d.outbox {
			if len(out) == limit {
				break
			}
			if e.Status == domain.OutboxPending {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (v *view) ClaimEvent(ctx context.Context, eventID string) (*domain.IntegrationEvent, error) {
	var out *domain.IntegrationEvent
	err := v.do(ctx, func(d *data) error {
		for _, e := range d.outbox {
			if e.EventID == eventID && e.Status == domain.OutboxPending {
				out = &e
				return nil
			}
		}
		return fmt.Errorf("pending outbox event %s: %w", eventID, apperrors.ErrNotFound)
	})
	return out, err
}

func (v *view) MarkPublished(ctx context.Context, eventID, messageID string, at time.Time) error {
	return v.updateEvent(ctx, eventID, func(e *domain.IntegrationEvent) {
		e.Status = domain.OutboxPublished
		e.MessageID = messageID
		e.PublishedAt = &at
		e.Attempts++
		e.LastError = ""
	})
}

func (v *view) MarkFailed(ctx context.Context, eventID, lastError string, dead bool) error {
	return v.updateEvent(ctx, eventID, func(e *domain.IntegrationEvent) {
		e.Attempts++
		e.LastError = lastError
		if dead {
			e.Status = domain.OutboxDead
		}
	})
}

func (v *view) updateEvent(ctx context.Context, eventID string, fn func(e *domain.IntegrationEvent)) error {
	return v.do(ctx, func(d *data) error {
		for i := range d.outbox {
			if d.outbox[i].EventID == eventID {
				fn(&d.outbox[i])
				return nil
			}
		}
		return fmt.Errorf("outbox event %s: %w", eventID, apperrors.ErrNotFound)
	})
}
