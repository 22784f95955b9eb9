package events

import (
	"context"
	"log/slog"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
)

// LogPublisher writes events to the log. It stands in for Pub/Sub when no
// project is configured.
type LogPublisher struct{}

var _ portssvc.EventPublisher = LogPublisher{}

func (LogPublisher) Publish(ctx context.Context, event domain.IntegrationEvent) (string, error) {
	middleware.GetLoggerFromCtx(ctx).Info("Integration event",
		slog.String("event_id", event.EventID),
		slog.String("event_type", event.EventType),
		slog.String("organization_id", event.OrganizationID),
		slog.String("journal_id", event.JournalID),
		slog.String("payload", string(event.Payload)),
	)
	return "log-" + event.EventID, nil
}
