// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Default table names.
const (
	DefaultEventsTable        = "events"
	DefaultSubscriptionsTable = "subscriptions"
)

const eventColumns = `id::text, source, source_id, title, description, event_date, event_time,
	venue, image_url, ticket_url, price, created_at, updated_at`

// EventStoreConfig controls the Postgres connection pool and table names.
type EventStoreConfig struct {
	DSN                string
	EventsTable        string
	SubscriptionsTable string
	MaxConns           int32
	MinConns           int32
	MaxConnLifetime    time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// EventStore persists events and subscriptions in Postgres.
type EventStore struct {
	pool          pool
	idGen         event.IDGenerator
	events        string
	subscriptions string
}

// NewEventStore connects to Postgres using cfg.
func NewEventStore(ctx context.Context, cfg EventStoreConfig, idGen event.IDGenerator) (*EventStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewEventStoreWithPool(p, cfg.EventsTable, cfg.SubscriptionsTable, idGen)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewEventStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewEventStoreWithPool(p pool, eventsTable, subscriptionsTable string, idGen event.IDGenerator) (*EventStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if idGen == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if eventsTable == "" {
		eventsTable = DefaultEventsTable
	}
	if subscriptionsTable == "" {
		subscriptionsTable = DefaultSubscriptionsTable
	}
	for _, table := range []string{eventsTable, subscriptionsTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &EventStore{
		pool:          p,
		idGen:         idGen,
		events:        eventsTable,
		subscriptions: subscriptionsTable,
	}, nil
}

// Close releases the underlying pool resources.
func (s *EventStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *EventStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the events and subscriptions tables when missing.
func (s *EventStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id uuid PRIMARY KEY,
	source text NOT NULL,
	source_id text NOT NULL,
	title text NOT NULL,
	description text NOT NULL,
	event_date date NOT NULL,
	event_time text NOT NULL,
	venue text NOT NULL,
	image_url text NOT NULL,
	ticket_url text NOT NULL,
	price text NOT NULL,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	UNIQUE (source, source_id)
);
CREATE TABLE IF NOT EXISTS %[2]s (
	id uuid PRIMARY KEY,
	email text NOT NULL,
	opt_in boolean NOT NULL,
	event_id uuid NOT NULL REFERENCES %[1]s (id),
	created_at timestamptz NOT NULL
);`, s.events, s.subscriptions)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert inserts rec or overwrites the row with the same (source, source_id)
// in one statement. created_at is kept on update.
func (s *EventStore) Upsert(ctx context.Context, rec event.Record) (bool, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return false, fmt.Errorf("generate event id: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = rec.UpdatedAt
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, source, source_id, title, description, event_date, event_time,
	venue, image_url, ticket_url, price, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
ON CONFLICT (source, source_id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	event_date = EXCLUDED.event_date,
	event_time = EXCLUDED.event_time,
	venue = EXCLUDED.venue,
	image_url = EXCLUDED.image_url,
	ticket_url = EXCLUDED.ticket_url,
	price = EXCLUDED.price,
	updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted`, s.events)

	var inserted bool
	err = s.pool.QueryRow(ctx, query,
		id,
		rec.Source,
		rec.SourceID,
		rec.Title,
		rec.Description,
		rec.Date,
		rec.Time,
		rec.Venue,
		rec.ImageURL,
		rec.TicketURL,
		rec.Price,
		createdAt,
		rec.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert event %s/%s: %w", rec.Source, rec.SourceID, err)
	}
	return inserted, nil
}

// List returns events ordered by a whitelisted column.
func (s *EventStore) List(ctx context.Context, opts event.ListOptions) ([]event.Record, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s %s, id LIMIT $1`,
		eventColumns, s.events, opts.Sort, strings.ToUpper(string(opts.Order)))
	rows, err := s.pool.Query(ctx, query, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []event.Record
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// Get returns the event with id, or event.ErrNotFound.
func (s *EventStore) Get(ctx context.Context, id string) (event.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return event.Record{}, event.ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, eventColumns, s.events)
	rec, err := scanEvent(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Record{}, event.ErrNotFound
		}
		return event.Record{}, fmt.Errorf("get event: %w", err)
	}
	return rec, nil
}

// CreateSubscription inserts sub.
func (s *EventStore) CreateSubscription(ctx context.Context, sub event.Subscription) error {
	query := fmt.Sprintf(`
INSERT INTO %s (id, email, opt_in, event_id, created_at)
VALUES ($1,$2,$3,$4,$5)`, s.subscriptions)
	if _, err := s.pool.Exec(ctx, query, sub.ID, sub.Email, sub.OptIn, sub.EventID, sub.CreatedAt); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (event.Record, error) {
	var rec event.Record
	err := row.Scan(
		&rec.ID,
		&rec.Source,
		&rec.SourceID,
		&rec.Title,
		&rec.Description,
		&rec.Date,
		&rec.Time,
		&rec.Venue,
		&rec.ImageURL,
		&rec.TicketURL,
		&rec.Price,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return event.Record{}, err //nolint:wrapcheck // callers wrap with context
	}
	return rec, nil
}
