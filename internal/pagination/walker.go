// Package pagination walks numbered listing pages until a source runs dry.
package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

const (
	// DefaultMaxPages bounds a walk when the source does not set its own cap.
	DefaultMaxPages = 3
	// DefaultPageDelay separates consecutive page fetches.
	DefaultPageDelay = 2 * time.Second
	pageParam        = "page"
)

// PageScraper fetches and extracts a single listing page.
type PageScraper interface {
	Scrape(ctx context.Context, src event.Source, pageURL string) ([]event.Raw, error)
}

// Walker fetches page 1..N of a source and concatenates the results.
type Walker struct {
	scraper PageScraper
	pauser  event.Pauser
	delay   time.Duration
	logger  *zap.Logger
}

// New constructs a Walker. A negative delay falls back to DefaultPageDelay.
func New(scraper PageScraper, pauser event.Pauser, delay time.Duration, logger *zap.Logger) *Walker {
	if delay < 0 {
		delay = DefaultPageDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{scraper: scraper, pauser: pauser, delay: delay, logger: logger}
}

// Walk collects records page by page. It stops at the first page that yields
// nothing, at the first fetch error, or after src.MaxPages pages. Errors are
// logged and end the walk; records gathered so far are kept.
func (w *Walker) Walk(ctx context.Context, src event.Source) []event.Raw {
	maxPages := src.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := w.logger.With(zap.String("source", src.Name))

	var all []event.Raw
	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			w.pauser.Pause(ctx, w.delay)
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("pagination canceled", zap.Int("page", page), zap.Error(err))
			break
		}
		pageURL, err := PageURL(src.URL, page)
		if err != nil {
			logger.Error("build page url", zap.Int("page", page), zap.Error(err))
			break
		}
		records, err := w.scraper.Scrape(ctx, src, pageURL)
		if err != nil {
			logger.Error("page scrape failed", zap.Int("page", page), zap.String("url", pageURL), zap.Error(err))
			break
		}
		if len(records) == 0 {
			logger.Debug("no events on page, stopping", zap.Int("page", page))
			break
		}
		logger.Info("page scraped", zap.Int("page", page), zap.Int("events", len(records)))
		all = append(all, records...)
	}
	return all
}

// PageURL returns the listing URL for page n. Page 1 is the bare URL; later
// pages set the page query parameter, keeping any existing query.
func PageURL(base string, n int) (string, error) {
	if n <= 1 {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
