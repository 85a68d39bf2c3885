// Package orchestrator runs one scrape pass over every configured source:
// fetch (single page or paginated), normalize, persist.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/metrics"
	"github.com/JakeFAU/city-events-scraper/internal/normalize"
	"github.com/JakeFAU/city-events-scraper/internal/pagination"
	"github.com/JakeFAU/city-events-scraper/internal/persist"
)

// DefaultSourceDelay separates consecutive sources.
const DefaultSourceDelay = 3 * time.Second

// Run statuses reported to metrics.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Config tunes the orchestrator.
type Config struct {
	SourceDelay time.Duration
	// SummaryTopic receives one SourceSummary per source when a publisher
	// is configured.
	SummaryTopic string
}

// Dependencies groups the collaborators used by the orchestrator.
type Dependencies struct {
	Scraper    pagination.PageScraper
	Walker     *pagination.Walker
	Normalizer *normalize.Normalizer
	Persister  *persist.Persister
	Publisher  event.Publisher
	Pauser     event.Pauser
	Clock      event.Clock
	Logger     *zap.Logger
}

// Orchestrator scrapes sources sequentially and isolates their failures.
type Orchestrator struct {
	cfg  Config
	deps Dependencies
}

// New validates dependencies and constructs an Orchestrator.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Scraper == nil {
		return nil, fmt.Errorf("scraper is required")
	}
	if deps.Normalizer == nil || deps.Persister == nil {
		return nil, fmt.Errorf("normalizer and persister are required")
	}
	if deps.Clock == nil || deps.Pauser == nil {
		return nil, fmt.Errorf("clock and pauser are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Walker == nil {
		deps.Walker = pagination.New(deps.Scraper, deps.Pauser, pagination.DefaultPageDelay, deps.Logger)
	}
	if cfg.SourceDelay < 0 {
		cfg.SourceDelay = DefaultSourceDelay
	}
	return &Orchestrator{cfg: cfg, deps: deps}, nil
}

// RunAll scrapes every source in order. A failing source is logged and
// summarized; the remaining sources still run.
func (o *Orchestrator) RunAll(ctx context.Context, sources []event.Source) []event.SourceSummary {
	logger := o.deps.Logger
	started := o.deps.Clock.Now()
	logger.Info("scrape run started", zap.Int("sources", len(sources)))

	summaries := make([]event.SourceSummary, 0, len(sources))
	for i, src := range sources {
		if i > 0 {
			o.deps.Pauser.Pause(ctx, o.cfg.SourceDelay)
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("scrape run canceled", zap.Int("remaining", len(sources)-i), zap.Error(err))
			break
		}
		summary := o.runSource(ctx, src)
		o.publish(ctx, summary)
		summaries = append(summaries, summary)
	}

	finished := o.deps.Clock.Now()
	status := runStatus(summaries, len(sources))
	metrics.ObserveRun(status, finished.Sub(started), finished)
	logger.Info("scrape run finished",
		zap.String("status", status),
		zap.Int("sources", len(summaries)),
		zap.Duration("duration", finished.Sub(started)),
	)
	return summaries
}

func (o *Orchestrator) runSource(ctx context.Context, src event.Source) (summary event.SourceSummary) {
	logger := o.deps.Logger.With(zap.String("source", src.Name))
	summary = event.SourceSummary{Source: src.Name, StartedAt: o.deps.Clock.Now()}

	defer func() {
		if r := recover(); r != nil {
			summary.Error = fmt.Sprintf("panic: %v", r)
			logger.Error("source panicked", zap.Any("panic", r))
		}
		if summary.Error != "" {
			metrics.ObserveSourceFailure(src.Name)
		}
		summary.FinishedAt = o.deps.Clock.Now()
	}()

	logger.Info("scraping source", zap.String("url", src.URL), zap.Bool("paginated", src.UsesPagination))
	raws, err := o.collect(ctx, src)
	if err != nil {
		summary.Error = err.Error()
		logger.Error("source scrape failed", zap.Error(err))
		return summary
	}
	summary.Extracted = len(raws)
	if len(raws) == 0 {
		logger.Info("source yielded no events")
		return summary
	}

	records := o.deps.Normalizer.NormalizeAll(raws)
	res := o.deps.Persister.Save(ctx, records)
	summary.Inserted = res.Inserted
	summary.Updated = res.Updated
	summary.Failed = res.Failed
	logger.Info("source complete",
		zap.Int("extracted", summary.Extracted),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return summary
}

func (o *Orchestrator) collect(ctx context.Context, src event.Source) ([]event.Raw, error) {
	if src.UsesPagination {
		return o.deps.Walker.Walk(ctx, src), nil
	}
	raws, err := o.deps.Scraper.Scrape(ctx, src, src.URL)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", src.Name, err)
	}
	return raws, nil
}

func (o *Orchestrator) publish(ctx context.Context, summary event.SourceSummary) {
	if o.deps.Publisher == nil || o.cfg.SummaryTopic == "" {
		return
	}
	if _, err := o.deps.Publisher.Publish(ctx, o.cfg.SummaryTopic, summary); err != nil {
		o.deps.Logger.Warn("publish source summary failed", zap.String("source", summary.Source), zap.Error(err))
	}
}

func runStatus(summaries []event.SourceSummary, planned int) string {
	failed := 0
	for _, s := range summaries {
		if s.Error != "" {
			failed++
		}
	}
	switch {
	case planned > 0 && failed == planned:
		return StatusFailed
	case failed > 0 || len(summaries) < planned:
		return StatusPartial
	default:
		return StatusSuccess
	}
}
