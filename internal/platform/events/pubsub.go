// Package events delivers integration events written to the outbox.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"google.golang.org/api/option"
)

// Message attributes set on every published event.
const (
	AttrEventType      = "event_type"
	AttrOrganizationID = "organization_id"
	AttrJournalID      = "journal_id"
)

// NewPubSubClient connects to Pub/Sub. Application Default Credentials are
// used unless credentialsJSON is set.
func NewPubSubClient(ctx context.Context, projectID, credentialsJSON string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id is required")
	}
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return client, nil
}

// PubSubPublisher publishes events to a single topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
}

var _ portssvc.EventPublisher = (*PubSubPublisher)(nil)

// NewPubSubPublisher returns a publisher for topicID on client.
func NewPubSubPublisher(client *pubsub.Client, topicID string) (*PubSubPublisher, error) {
	if client == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topicID == "" {
		return nil, errors.New("topic is required")
	}
	return &PubSubPublisher{topic: client.Topic(topicID)}, nil
}

// Publish sends the event and waits for the server-assigned message id.
func (p *PubSubPublisher) Publish(ctx context.Context, event domain.IntegrationEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode event %s: %w", event.EventID, err)
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			AttrEventType:      event.EventType,
			AttrOrganizationID: event.OrganizationID,
			AttrJournalID:      event.JournalID,
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish event %s: %w", event.EventID, err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *PubSubPublisher) Stop() {
	p.topic.Stop()
}
