// Package persist saves normalized event records through an idempotent
// per-record upsert.
package persist

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/metrics"
)

// Result counts the outcome of one Save call.
type Result struct {
	Inserted int
	Updated  int
	Failed   int
}

// Persister writes records to an event.Store one upsert at a time.
type Persister struct {
	store  event.Store
	clock  event.Clock
	logger *zap.Logger
}

// New constructs a Persister.
func New(store event.Store, clock event.Clock, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{store: store, clock: clock, logger: logger}
}

// Save upserts every record keyed by (source, sourceId). Invalid records
// and failed upserts are logged and counted; they never stop the batch.
func (p *Persister) Save(ctx context.Context, records []event.Record) Result {
	var res Result
	for _, rec := range records {
		if ctx.Err() != nil {
			p.logger.Warn("save interrupted", zap.Error(ctx.Err()), zap.Int("remaining", len(records)-res.total()))
			break
		}
		if err := rec.Validate(); err != nil {
			res.Failed++
			metrics.ObserveUpsert(rec.Source, metrics.ResultFailed)
			p.logger.Warn("rejecting invalid event",
				zap.String("source", rec.Source),
				zap.String("source_id", rec.SourceID),
				zap.Error(err),
			)
			continue
		}
		now := p.clock.Now()
		rec.UpdatedAt = now
		rec.CreatedAt = now

		inserted, err := p.store.Upsert(ctx, rec)
		switch {
		case err != nil:
			res.Failed++
			metrics.ObserveUpsert(rec.Source, metrics.ResultFailed)
			p.logger.Error("upsert event failed",
				zap.String("source", rec.Source),
				zap.String("source_id", rec.SourceID),
				zap.Error(err),
			)
		case inserted:
			res.Inserted++
			metrics.ObserveUpsert(rec.Source, metrics.ResultInserted)
		default:
			res.Updated++
			metrics.ObserveUpsert(rec.Source, metrics.ResultUpdated)
		}
	}
	p.logger.Info("events saved",
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res
}

func (r Result) total() int {
	return r.Inserted + r.Updated + r.Failed
}
