package event

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate reports the first reason rec cannot be persisted.
func (r Record) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"source", r.Source},
		{"sourceId", r.SourceID},
		{"title", r.Title},
		{"description", r.Description},
		{"time", r.Time},
		{"venue", r.Venue},
		{"imageUrl", r.ImageURL},
		{"ticketUrl", r.TicketURL},
		{"price", r.Price},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if !IsAbsoluteURL(r.ImageURL) {
		return fmt.Errorf("imageUrl %q is not absolute", r.ImageURL)
	}
	if !IsAbsoluteURL(r.TicketURL) {
		return fmt.Errorf("ticketUrl %q is not absolute", r.TicketURL)
	}
	return nil
}

// IsAbsoluteURL reports whether raw carries both a scheme and a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Slug lowercases name and keeps only letters and digits, joined by dashes.
// It is used for synthetic IDs and blob paths.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
