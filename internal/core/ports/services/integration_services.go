package services

import (
	"context"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// EventPublisher delivers integration events to subscribers.
type EventPublisher interface {
	// Publish sends the event and returns the broker's message id.
	Publish(ctx context.Context, event domain.IntegrationEvent) (string, error)
}

// AsyncTask is a unit of background work handed to a TaskQueue.
type AsyncTask struct {
	TaskID         string         `json:"taskID"`
	Name           string         `json:"name"`
	OrganizationID string         `json:"organizationID"`
	Payload        map[string]any `json:"payload"`
}

// TaskQueue enqueues background work.
type TaskQueue interface {
	// Enqueue schedules the task and returns its id.
	Enqueue(ctx context.Context, task AsyncTask) (string, error)
}

// RequestLocker guards against two in-flight requests with the same key.
type RequestLocker interface {
	// Acquire takes the lock for key. It returns a conflict error when the
	// lock is already held; release must be called once the request ends.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
