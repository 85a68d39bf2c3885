// Package normalize turns raw extracted listing fields into canonical
// event records.
package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// Normalizer trims, parses and defaults raw listing fields.
type Normalizer struct {
	clock    event.Clock
	defaults event.Defaults
	logger   *zap.Logger
}

// New builds a Normalizer. Empty entries in defaults fall back to the
// standard table.
func New(clock event.Clock, defaults event.Defaults, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		clock:    clock,
		defaults: defaults.Merge(event.StandardDefaults()),
		logger:   logger,
	}
}

// Normalize converts raw into a Record. Title and ticket link are passed
// through as-is; every other empty field receives its default.
// Unparseable dates become today's date.
func (n *Normalizer) Normalize(raw event.Raw) event.Record {
	now := n.clock.Now()
	rec := event.Record{
		Source:      clean(raw.Source),
		SourceID:    clean(raw.SourceID),
		Title:       clean(raw.Title),
		Description: orDefault(clean(raw.Description), n.defaults.Description),
		Time:        orDefault(clean(raw.Time), n.defaults.Time),
		Venue:       orDefault(clean(raw.Venue), n.defaults.Venue),
		ImageURL:    orDefault(strings.TrimSpace(raw.ImageURL), n.defaults.ImageURL),
		TicketURL:   strings.TrimSpace(raw.TicketURL),
		Price:       orDefault(clean(raw.Price), n.defaults.Price),
	}

	dateText := clean(raw.DateText)
	if dateText == "" {
		rec.Date = Today(now)
		return rec
	}
	date, err := ParseDate(dateText, now)
	if err != nil {
		n.logger.Warn("unparseable event date, using today",
			zap.String("source", rec.Source),
			zap.String("source_id", rec.SourceID),
			zap.String("date_text", dateText),
		)
		date = Today(now)
	}
	rec.Date = date
	return rec
}

// NormalizeAll converts every raw entry in order.
func (n *Normalizer) NormalizeAll(raws []event.Raw) []event.Record {
	out := make([]event.Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw))
	}
	return out
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
