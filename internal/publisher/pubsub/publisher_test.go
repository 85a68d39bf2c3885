package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const projectID = "events-test"

func newTestPublisher(t *testing.T, topics ...string) (*Publisher, *pstest.Server) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(ctx, projectID, option.WithGRPCConn(conn))
	require.NoError(t, err)
	for _, id := range topics {
		_, err := client.CreateTopic(ctx, id)
		require.NoError(t, err)
	}

	pub := New(client)
	t.Cleanup(func() { _ = pub.Close() })
	return pub, srv
}

func TestPublishMarshalsPayload(t *testing.T) {
	t.Parallel()

	pub, srv := newTestPublisher(t, "scrape-runs")
	payload := map[string]any{"source": "Sydney.com", "inserted": 4}

	id, err := pub.Publish(context.Background(), "scrape-runs", payload)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "Sydney.com", got["source"])
	assert.EqualValues(t, 4, got["inserted"])
}

func TestPublishReusesTopicHandle(t *testing.T) {
	t.Parallel()

	pub, srv := newTestPublisher(t, "subscriptions")
	for i := 0; i < 3; i++ {
		_, err := pub.Publish(context.Background(), "subscriptions", i)
		require.NoError(t, err)
	}
	assert.Len(t, pub.topics, 1)
	assert.Len(t, srv.Messages(), 3)
}

func TestPublishValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "t", "x")
	require.Error(t, err)

	pub, _ := newTestPublisher(t)
	_, err = pub.Publish(context.Background(), "", "x")
	require.ErrorIs(t, err, ErrNoTopic)

	_, err = pub.Publish(context.Background(), "t", func() {})
	require.ErrorContains(t, err, "marshal payload")
}
