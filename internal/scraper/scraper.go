// Package scraper fetches one listing page and runs the source's extractor
// over it.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/extract"
	"github.com/JakeFAU/city-events-scraper/internal/metrics"
)

// Config controls page archiving.
type Config struct {
	// ArchivePages writes every fetched page to the blob store.
	ArchivePages bool
	BlobPrefix   string
	ContentType  string
}

// PageScraper turns a listing URL into raw event field sets.
type PageScraper struct {
	fetcher  event.Fetcher
	registry *extract.Registry
	blobs    event.BlobStore
	hasher   event.Hasher
	clock    event.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a PageScraper. blobs and hasher may be nil when archiving
// is disabled.
func New(
	fetcher event.Fetcher,
	registry *extract.Registry,
	blobs event.BlobStore,
	hasher event.Hasher,
	clock event.Clock,
	cfg Config,
	logger *zap.Logger,
) *PageScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	return &PageScraper{
		fetcher:  fetcher,
		registry: registry,
		blobs:    blobs,
		hasher:   hasher,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Scrape fetches pageURL and extracts it with the strategy registered for
// src. Fetch and parse failures are returned; per-item failures are
// handled by the extractor.
func (p *PageScraper) Scrape(ctx context.Context, src event.Source, pageURL string) ([]event.Raw, error) {
	x, err := p.registry.For(src)
	if err != nil {
		return nil, fmt.Errorf("select extractor: %w", err)
	}
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	p.archive(ctx, src, page)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	raws := x.Extract(doc, src)
	metrics.ObserveExtracted(src.Name, len(raws))
	p.logger.Debug("page extracted",
		zap.String("source", src.Name),
		zap.String("url", pageURL),
		zap.Int("records", len(raws)),
		zap.Duration("fetch_duration", page.Duration),
	)
	return raws, nil
}

func (p *PageScraper) archive(ctx context.Context, src event.Source, page event.Page) {
	if !p.cfg.ArchivePages || p.blobs == nil || p.hasher == nil {
		return
	}
	hash, err := p.hasher.Hash(page.Body)
	if err != nil {
		p.logger.Warn("hash page failed", zap.String("source", src.Name), zap.Error(err))
		return
	}
	path := p.blobPath(src, hash)
	uri, err := p.blobs.PutObject(ctx, path, p.cfg.ContentType, bytes.NewReader(page.Body))
	if err != nil {
		p.logger.Warn("archive page failed", zap.String("source", src.Name), zap.String("path", path), zap.Error(err))
		return
	}
	p.logger.Debug("page archived", zap.String("source", src.Name), zap.String("uri", uri))
}

func (p *PageScraper) blobPath(src event.Source, hash string) string {
	day := p.clock.Now().Format("2006-01-02")
	prefix := strings.Trim(p.cfg.BlobPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s/%s.html", event.Slug(src.Name), day, hash)
	}
	return fmt.Sprintf("%s/%s/%s/%s.html", prefix, event.Slug(src.Name), day, hash)
}
