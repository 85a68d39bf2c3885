package event

import (
	"context"
	"io"
	"time"
)

// Store persists event records keyed by (source, sourceId).
type Store interface {
	// Upsert inserts rec or overwrites the stored copy with the same key.
	// It reports whether a new row was created.
	Upsert(ctx context.Context, rec Record) (inserted bool, err error)
	List(ctx context.Context, opts ListOptions) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
}

// SubscriptionStore persists subscriptions.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub Subscription) error
}

// Fetcher retrieves one listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Pauser blocks for delay or until ctx is done.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// IDGenerator produces record and subscription IDs.
type IDGenerator interface {
	NewID() (string, error)
}
