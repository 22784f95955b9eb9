package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "himalytix-test",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.CreateTopic(ctx, "journal-events")
	require.NoError(t, err)

	pub, err := events.NewPubSubPublisher(client, "journal-events")
	require.NoError(t, err)
	defer pub.Stop()

	ev := pendingEvent("e1", 0)
	id, err := pub.Publish(ctx, ev)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.EventJournalPosted, msgs[0].Attributes[events.AttrEventType])
	assert.Equal(t, "org-1", msgs[0].Attributes[events.AttrOrganizationID])

	var got domain.IntegrationEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "e1", got.EventID)
}

func TestNewPubSubPublisher_RequiresTopic(t *testing.T) {
	_, err := events.NewPubSubPublisher(nil, "journal-events")
	assert.Error(t, err)

	_, err = events.NewPubSubClient(context.Background(), "", "")
	assert.Error(t, err)
}
