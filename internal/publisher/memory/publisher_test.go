package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "scrape-runs", map[string]string{"source": "Sydney.com"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)
	id2, err := pub.Publish(context.Background(), "confirmations", "payload")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "scrape-runs", msgs[0].Topic)
	assert.Equal(t, "memory-2", msgs[1].ID)

	msgs[0].Topic = "modified"
	assert.Equal(t, "scrape-runs", pub.Messages()[0].Topic, "Messages must return a copy")

	assert.Len(t, pub.MessagesFor("confirmations"), 1)
	assert.Empty(t, pub.MessagesFor("unknown"))
}

func TestPublisherDropsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	pub := NewWithCapacity(2)
	for i := 0; i < 3; i++ {
		_, err := pub.Publish(context.Background(), "t", i)
		require.NoError(t, err)
	}
	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].Payload)
	assert.Equal(t, "memory-3", msgs[1].ID)
}
