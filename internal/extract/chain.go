package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate reads one possible value for a field from a listing card.
// An empty result means "no match, try the next candidate".
type Candidate func(s *goquery.Selection) string

// Chain is an ordered list of candidates evaluated first-non-empty-wins.
type Chain []Candidate

// First returns the first non-empty candidate value, or "".
func (c Chain) First(s *goquery.Selection) string {
	for _, candidate := range c {
		if v := strings.TrimSpace(candidate(s)); v != "" {
			return v
		}
	}
	return ""
}

// Text reads the text of the first element matching selector.
func Text(selector string) Candidate {
	return func(s *goquery.Selection) string {
		return strings.TrimSpace(s.Find(selector).First().Text())
	}
}

// Attr reads attr from the first element matching selector.
func Attr(selector, attr string) Candidate {
	return func(s *goquery.Selection) string {
		return s.Find(selector).First().AttrOr(attr, "")
	}
}

// OwnAttr reads attr from the card element itself.
func OwnAttr(attr string) Candidate {
	return func(s *goquery.Selection) string {
		return s.AttrOr(attr, "")
	}
}

// Const always yields value. Layouts use it for fields whose markup never
// carries the information.
func Const(value string) Candidate {
	return func(*goquery.Selection) string {
		return value
	}
}
