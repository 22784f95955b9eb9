package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	portsrepo "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/repositories"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/metrics"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 10
)

// Relay re-publishes outbox events that were committed but never published,
// e.g. after a crash between commit and publish or a broker outage.
type Relay struct {
	uow          portsrepo.UnitOfWork
	publisher    portssvc.EventPublisher
	logger       *slog.Logger
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	now          func() time.Time
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithBatchSize sets how many events are claimed per pass.
func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithPollInterval sets the pause between passes.
func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithMaxAttempts sets the publish attempts after which an event is DEAD.
func WithMaxAttempts(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewRelay creates a relay over the outbox of uow.
func NewRelay(uow portsrepo.UnitOfWork, publisher portssvc.EventPublisher, logger *slog.Logger, opts ...RelayOption) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		uow:          uow,
		publisher:    publisher,
		logger:       logger.With(slog.String("component", "outbox_relay")),
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RelayStats summarizes one pass.
type RelayStats struct {
	Published int
	Failed    int
	Dead      int
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("Outbox relay started", slog.Duration("poll_interval", r.pollInterval))
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		stats, err := r.DispatchOnce(ctx)
		if err != nil {
			r.logger.Error("Outbox relay pass failed", slog.String("error", err.Error()))
		} else if stats.Published+stats.Failed+stats.Dead > 0 {
			r.logger.Info("Outbox relay pass",
				slog.Int("published", stats.Published), slog.Int("failed", stats.Failed), slog.Int("dead", stats.Dead))
		}
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
		}
	}
}

// DispatchOnce claims a batch of pending events and publishes them. The
// claimed rows stay locked until the pass commits so concurrent relays skip
// them.
func (r *Relay) DispatchOnce(ctx context.Context) (RelayStats, error) {
	var stats RelayStats
	ctx = middleware.WithLogger(ctx, r.logger)
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		stats = RelayStats{}
		pending, err := tx.Outbox().ClaimPending(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("claim pending events: %w", err)
		}
		for _, ev := range pending {
			if ev.Attempts >= r.maxAttempts {
				if err := tx.Outbox().MarkFailed(ctx, ev.EventID, fmt.Sprintf("max publish attempts exceeded (%d)", r.maxAttempts), true); err != nil {
					return err
				}
				stats.Dead++
				continue
			}

			msgID, pubErr := r.publisher.Publish(ctx, ev)
			if pubErr == nil {
				if err := tx.Outbox().MarkPublished(ctx, ev.EventID, msgID, r.now()); err != nil {
					return err
				}
				stats.Published++
				continue
			}

			dead := ev.Attempts+1 >= r.maxAttempts
			if err := tx.Outbox().MarkFailed(ctx, ev.EventID, pubErr.Error(), dead); err != nil {
				return err
			}
			if dead {
				stats.Dead++
				r.logger.Error("Outbox event moved to DEAD after max attempts",
					slog.String("event_id", ev.EventID), slog.Int("attempts", ev.Attempts+1), slog.String("error", pubErr.Error()))
			} else {
				stats.Failed++
				r.logger.Warn("Outbox publish failed",
					slog.String("event_id", ev.EventID), slog.Int("attempts", ev.Attempts+1), slog.String("error", pubErr.Error()))
			}
		}
		return nil
	})
	if err != nil {
		return RelayStats{}, err
	}
	metrics.OutboxEvents.WithLabelValues("published").Add(float64(stats.Published))
	metrics.OutboxEvents.WithLabelValues("failed").Add(float64(stats.Failed))
	metrics.OutboxEvents.WithLabelValues("dead").Add(float64(stats.Dead))
	return stats, nil
}
