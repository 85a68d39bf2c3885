package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// EventStore provides an in-memory event.Store for development/testing.
type EventStore struct {
	mu    sync.RWMutex
	idGen event.IDGenerator
	byID  map[string]event.Record
	byKey map[event.Key]string
	subs  []event.Subscription
}

// NewEventStore constructs an EventStore that assigns IDs with idGen.
func NewEventStore(idGen event.IDGenerator) *EventStore {
	return &EventStore{
		idGen: idGen,
		byID:  make(map[string]event.Record),
		byKey: make(map[event.Key]string),
	}
}

// Upsert inserts rec, or overwrites the record stored under the same
// (source, sourceId) while keeping its ID and CreatedAt.
func (s *EventStore) Upsert(_ context.Context, rec event.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[rec.Key()]; ok {
		existing := s.byID[id]
		rec.ID = id
		rec.CreatedAt = existing.CreatedAt
		s.byID[id] = rec
		return false, nil
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return false, fmt.Errorf("generate event id: %w", err)
	}
	rec.ID = id
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	s.byID[id] = rec
	s.byKey[rec.Key()] = id
	return true, nil
}

// List returns up to opts.Limit records ordered by opts.Sort.
func (s *EventStore) List(_ context.Context, opts event.ListOptions) ([]event.Record, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]event.Record, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], opts.Sort)
		if c == 0 {
			c = strings.Compare(out[i].ID, out[j].ID)
		}
		if opts.Order == event.OrderDesc {
			return c > 0
		}
		return c < 0
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Get returns the record with id or event.ErrNotFound.
func (s *EventStore) Get(_ context.Context, id string) (event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return event.Record{}, event.ErrNotFound
	}
	return rec, nil
}

// Len reports the number of stored records.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// CreateSubscription stores sub.
func (s *EventStore) CreateSubscription(_ context.Context, sub event.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return nil
}

// Subscriptions returns a copy of the stored subscriptions.
func (s *EventStore) Subscriptions() []event.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

func compare(a, b event.Record, column string) int {
	switch column {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "venue":
		return strings.Compare(a.Venue, b.Venue)
	case "source":
		return strings.Compare(a.Source, b.Source)
	case "price":
		return strings.Compare(a.Price, b.Price)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.Date.Compare(b.Date)
	}
}
