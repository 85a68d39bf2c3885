// Package extract maps parsed listing pages to raw event field sets using
// per-source selector strategies.
package extract

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// Extractor maps one parsed listing page to raw field sets.
type Extractor interface {
	Extract(doc *goquery.Document, src event.Source) []event.Raw
}

// Fields holds one fallback chain per extracted field.
type Fields struct {
	Title       Chain
	Description Chain
	Date        Chain
	Time        Chain
	Venue       Chain
	Image       Chain
	Ticket      Chain
	Price       Chain
	ID          Chain
}

// Layout describes a repeating listing card. When Within is set, cards
// are searched inside each Within match rather than the whole page.
type Layout struct {
	Within    string
	Container string
	Fields    Fields
	// IDTag is added to synthetic identifiers produced by this layout.
	IDTag string
}

// Strategy is a named primary layout plus broader layouts tried once when
// the primary yields nothing.
type Strategy struct {
	Name      string
	Primary   Layout
	Secondary []Layout
}

// LayoutExtractor runs a Strategy against documents.
type LayoutExtractor struct {
	strategy Strategy
	clock    event.Clock
	logger   *zap.Logger
}

// NewLayoutExtractor builds an Extractor for strategy.
func NewLayoutExtractor(strategy Strategy, clock event.Clock, logger *zap.Logger) *LayoutExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutExtractor{
		strategy: strategy,
		clock:    clock,
		logger:   logger.With(zap.String("strategy", strategy.Name)),
	}
}

// Extract applies the primary layout, then each secondary layout in turn
// until one produces records.
func (x *LayoutExtractor) Extract(doc *goquery.Document, src event.Source) []event.Raw {
	if doc == nil {
		return nil
	}
	base, err := BaseURL(src)
	if err != nil {
		x.logger.Warn("source has no usable base url", zap.String("source", src.Name), zap.Error(err))
	}
	out := x.extractLayout(doc.Selection, x.strategy.Primary, src, base)
	if len(out) > 0 {
		return out
	}
	for _, layout := range x.strategy.Secondary {
		out = x.extractLayout(doc.Selection, layout, src, base)
		if len(out) > 0 {
			x.logger.Info("secondary selectors matched",
				zap.String("source", src.Name),
				zap.String("container", layout.Container),
				zap.Int("count", len(out)),
			)
			return out
		}
	}
	return nil
}

func (x *LayoutExtractor) extractLayout(
	root *goquery.Selection,
	layout Layout,
	src event.Source,
	base *url.URL,
) []event.Raw {
	var cards []*goquery.Selection
	if layout.Within != "" {
		root.Find(layout.Within).Each(func(_ int, scope *goquery.Selection) {
			scope.Find(layout.Container).Each(func(_ int, card *goquery.Selection) {
				cards = append(cards, card)
			})
		})
	} else {
		root.Find(layout.Container).Each(func(_ int, card *goquery.Selection) {
			cards = append(cards, card)
		})
	}

	out := make([]event.Raw, 0, len(cards))
	for pos, card := range cards {
		raw, ok, err := x.extractItem(card, layout, src, base, pos)
		if err != nil {
			x.logger.Warn("skipping listing item",
				zap.String("source", src.Name),
				zap.Int("position", pos),
				zap.Error(err),
			)
			continue
		}
		if ok {
			out = append(out, raw)
		}
	}
	return out
}

// extractItem reads one card. ok is false when the card lacks a title or
// a ticket link.
func (x *LayoutExtractor) extractItem(
	card *goquery.Selection,
	layout Layout,
	src event.Source,
	base *url.URL,
	pos int,
) (raw event.Raw, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract item panicked: %v", r)
			ok = false
		}
	}()

	f := layout.Fields
	title := f.Title.First(card)
	ticketRef := f.Ticket.First(card)
	if title == "" || ticketRef == "" {
		return event.Raw{}, false, nil
	}
	ticket, err := ResolveURL(base, ticketRef)
	if err != nil {
		return event.Raw{}, false, fmt.Errorf("resolve ticket url: %w", err)
	}

	image := f.Image.First(card)
	if image != "" {
		if image, err = ResolveURL(base, image); err != nil {
			x.logger.Debug("dropping unresolvable image url",
				zap.String("source", src.Name),
				zap.Int("position", pos),
				zap.Error(err),
			)
			image = ""
		}
	}

	return event.Raw{
		Source:      src.Name,
		SourceID:    x.identify(card, layout, src, ticket, pos),
		Title:       title,
		Description: f.Description.First(card),
		DateText:    f.Date.First(card),
		Time:        f.Time.First(card),
		Venue:       f.Venue.First(card),
		ImageURL:    image,
		TicketURL:   ticket,
		Price:       f.Price.First(card),
	}, true, nil
}

// identify prefers a native id, then the ticket URL's last path segment.
// The synthetic fallback embeds the current time and does not survive
// across runs.
func (x *LayoutExtractor) identify(
	card *goquery.Selection,
	layout Layout,
	src event.Source,
	ticket string,
	pos int,
) string {
	if id := layout.Fields.ID.First(card); id != "" {
		return id
	}
	if seg := LastPathSegment(ticket); seg != "" {
		return seg
	}
	prefix := event.Slug(src.Name)
	if layout.IDTag != "" {
		prefix += "-" + layout.IDTag
	}
	return fmt.Sprintf("%s-%d-%d", prefix, pos, x.clock.Now().UnixMilli())
}
