package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time {
	return f.now
}

var testNow = time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)

var sydneyCom = event.Source{
	Name:     "Sydney.com",
	URL:      "https://www.sydney.com/events",
	BaseURL:  "https://www.sydney.com",
	Strategy: StrategySydneyCom,
}

func loadDoc(t *testing.T, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // read-only fixture
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSydneyComPrimaryLayout(t *testing.T) {
	t.Parallel()

	x := NewLayoutExtractor(SydneyComStrategy(), fakeClock{now: testNow}, zap.NewNop())
	raws := x.Extract(loadDoc(t, "sydney_com.html"), sydneyCom)
	require.Len(t, raws, 3)

	vivid := raws[0]
	assert.Equal(t, "Sydney.com", vivid.Source)
	assert.Equal(t, "vivid-2025", vivid.SourceID)
	assert.Equal(t, "Vivid Sydney", vivid.Title)
	assert.Equal(t, "Light, music and ideas across the harbour.", vivid.Description)
	assert.Equal(t, "23 May 2025", vivid.DateText)
	assert.Equal(t, "6pm - 11pm", vivid.Time)
	assert.Equal(t, "Circular Quay", vivid.Venue)
	assert.Equal(t, "https://www.sydney.com/images/vivid.jpg", vivid.ImageURL)
	assert.Equal(t, "https://tickets.example.com/vivid", vivid.TicketURL)
	assert.Equal(t, "Free", vivid.Price)

	jazz := raws[1]
	assert.Equal(t, "42", jazz.SourceID)
	assert.Equal(t, "https://www.sydney.com/events/42", jazz.TicketURL)
	assert.Equal(t, "2025-06-01", jazz.DateText)
	assert.Empty(t, jazz.Description)
	assert.Empty(t, jazz.Time)
	assert.Empty(t, jazz.Venue)
	assert.Empty(t, jazz.ImageURL)
	assert.Empty(t, jazz.Price)

	market := raws[2]
	assert.Equal(t, "tile-7", market.SourceID)
	assert.Equal(t, "Night Market", market.Title)
	assert.Equal(t, "https://www.sydney.com/events/night-market?ref=home", market.TicketURL)
}

func TestSydneyComSecondaryLayout(t *testing.T) {
	t.Parallel()

	x := NewLayoutExtractor(SydneyComStrategy(), fakeClock{now: testNow}, zap.NewNop())
	raws := x.Extract(loadDoc(t, "sydney_com_alt.html"), sydneyCom)
	require.Len(t, raws, 1)

	assert.Equal(t, "Opera in the Park", raws[0].Title)
	assert.Equal(t, "An evening of arias.", raws[0].Description)
	assert.Equal(t, "https://www.sydney.com/events/opera-park", raws[0].TicketURL)
	assert.Equal(t, "opera-park", raws[0].SourceID)
	assert.Equal(t, "See website for details", raws[0].Time)
	assert.Empty(t, raws[0].DateText)
}

func TestEventCardLayout(t *testing.T) {
	t.Parallel()

	src := event.Source{
		Name:     "SydneyConcerts",
		URL:      "https://www.sydney-concerts.com/upcoming",
		Strategy: StrategyEventCard,
	}
	x := NewLayoutExtractor(EventCardStrategy(), fakeClock{now: testNow}, zap.NewNop())
	raws := x.Extract(loadDoc(t, "event_card.html"), src)
	require.Len(t, raws, 2)

	assert.Equal(t, "c-1", raws[0].SourceID)
	assert.Equal(t, "2025-01-18", raws[0].DateText)
	assert.Equal(t, "$45", raws[0].Price)
	assert.Equal(t, "https://cdn.example.com/sym.jpg", raws[0].ImageURL)

	assert.Equal(t, "c-2", raws[1].SourceID)
	assert.Equal(t, "https://www.sydney-concerts.com/e/c-2", raws[1].TicketURL)
	assert.Empty(t, raws[1].Price)
}

func TestExtractSurvivesBrokenItem(t *testing.T) {
	t.Parallel()

	strategy := EventCardStrategy()
	strategy.Primary.Fields.Description = Chain{func(s *goquery.Selection) string {
		if s.HasClass("broken") {
			panic("malformed card")
		}
		return s.Find(".event-description").Text()
	}}
	html := `<div>
<div class="event-card"><h2 class="event-title">A</h2><a class="event-link" href="/a">x</a></div>
<div class="event-card broken"><h2 class="event-title">B</h2><a class="event-link" href="/b">x</a></div>
<div class="event-card"><h2 class="event-title">C</h2><a class="event-link" href="/c">x</a></div>
<div class="event-card"><h2 class="event-title">D</h2><a class="event-link" href="http://[::1">x</a></div>
</div>`
	src := event.Source{Name: "SydneyEvents", URL: "https://www.example-sydney-events.com/events"}

	x := NewLayoutExtractor(strategy, fakeClock{now: testNow}, zap.NewNop())
	raws := x.Extract(docFromString(t, html), src)
	require.Len(t, raws, 2)
	assert.Equal(t, "A", raws[0].Title)
	assert.Equal(t, "C", raws[1].Title)
	assert.Equal(t, "https://www.example-sydney-events.com/c", raws[1].TicketURL)
}

func TestSyntheticIdentifierFallback(t *testing.T) {
	t.Parallel()

	html := `<div class="event-tile"><h3 class="event-name">Pop-up</h3><a href="https://www.sydney.com/">x</a></div>`
	x := NewLayoutExtractor(SydneyComStrategy(), fakeClock{now: testNow}, zap.NewNop())
	raws := x.Extract(docFromString(t, html), sydneyCom)
	require.Len(t, raws, 1)
	assert.Equal(t, "sydney-com-0-1739174400000", raws[0].SourceID)
}

func TestQueryDistinguishedTicketLinksKeepDistinctIDs(t *testing.T) {
	t.Parallel()

	html := `<div>
<div class="event-tile"><h3 class="event-name">Ballet</h3><a href="/event?id=101">x</a></div>
<div class="event-tile"><h3 class="event-name">Comedy</h3><a href="/event?id=202">x</a></div>
</div>`
	x := NewLayoutExtractor(SydneyComStrategy(), fakeClock{now: testNow}, zap.NewNop())
	raws := x.Extract(docFromString(t, html), sydneyCom)
	require.Len(t, raws, 2)
	assert.Equal(t, "event?id=101", raws[0].SourceID)
	assert.Equal(t, "event?id=202", raws[1].SourceID)
}

func TestExtractNilDocument(t *testing.T) {
	t.Parallel()

	x := NewLayoutExtractor(EventCardStrategy(), fakeClock{now: testNow}, nil)
	require.Nil(t, x.Extract(nil, sydneyCom))
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry(fakeClock{now: testNow}, zap.NewNop())
	require.ElementsMatch(t, []string{StrategySydneyCom, StrategyEventCard}, r.Names())

	x, err := r.For(event.Source{Name: "SydneyEvents", Strategy: "Event-Card"})
	require.NoError(t, err)
	require.NotNil(t, x)

	x, err = r.For(event.Source{Name: "sydney.com"})
	require.NoError(t, err)
	require.NotNil(t, x)

	_, err = r.For(event.Source{Name: "Nowhere"})
	require.ErrorIs(t, err, ErrUnknownStrategy)
}
