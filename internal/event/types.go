// Package event defines the event record model and the collaborator
// interfaces shared by the scrape pipeline, the stores and the API.
package event

import (
	"errors"
	"time"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("event not found")

// Record is the canonical, normalized event listing.
type Record struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	SourceID    string    `json:"sourceId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Venue       string    `json:"venue"`
	ImageURL    string    `json:"imageUrl"`
	TicketURL   string    `json:"ticketUrl"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key is the natural identity of a Record.
type Key struct {
	Source   string
	SourceID string
}

// Key returns the (source, sourceId) deduplication key.
func (r Record) Key() Key {
	return Key{Source: r.Source, SourceID: r.SourceID}
}

// Raw holds the strings an extractor pulled off one listing card.
// Fields may be empty; the normalizer fills documented defaults.
type Raw struct {
	Source      string
	SourceID    string
	Title       string
	Description string
	DateText    string
	Time        string
	Venue       string
	ImageURL    string
	TicketURL   string
	Price       string
}

// Source describes one scraped website. It is read-only configuration.
type Source struct {
	Name           string `mapstructure:"name" json:"name"`
	URL            string `mapstructure:"url" json:"url"`
	BaseURL        string `mapstructure:"base_url" json:"base_url,omitempty"`
	Strategy       string `mapstructure:"strategy" json:"strategy,omitempty"`
	UsesPagination bool   `mapstructure:"uses_pagination" json:"uses_pagination"`
	MaxPages       int    `mapstructure:"max_pages" json:"max_pages"`
}

// Page is a fetched listing page.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Subscription is an email capture tied to one event.
type Subscription struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	OptIn     bool      `json:"optIn"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SortOrder is the direction used by listing queries.
type SortOrder string

// Sort orders accepted by ListOptions.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListOptions narrows a listing query.
type ListOptions struct {
	Limit int
	Sort  string
	Order SortOrder
}

// SourceSummary reports the outcome of scraping one source.
type SourceSummary struct {
	Source     string    `json:"source"`
	Extracted  int       `json:"extracted"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ConfirmationRequest asks the external mailer to confirm a subscription.
type ConfirmationRequest struct {
	SubscriptionID string `json:"subscription_id"`
	Email          string `json:"email"`
	EventID        string `json:"event_id"`
	EventTitle     string `json:"event_title"`
	TicketURL      string `json:"ticket_url"`
}
