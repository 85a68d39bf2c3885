package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// Layouts that carry a year, tried in order.
var datedLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"Mon 2 Jan 2006",
	"Mon, 2 Jan 2006",
	"Monday 2 January 2006",
	"Monday, 2 January 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
}

// Layouts without a year resolve to the reference year.
var yearlessLayouts = []string{
	"2 January",
	"2 Jan",
	"January 2",
	"Jan 2",
	"Mon 2 Jan",
	"Mon, 2 Jan",
	"Monday 2 January",
	"Monday, 2 January",
}

// ParseDate converts listing date text into a calendar date at UTC
// midnight. Day-first numeric forms are assumed. Ranges such as
// "15 Mar - 20 Mar 2025" resolve to their first day.
func ParseDate(text string, now time.Time) (time.Time, error) {
	cleaned := cleanDateText(text)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date text")
	}
	if d, ok := parseWithLayouts(cleaned, now); ok {
		return d, nil
	}
	for _, sep := range []string{" - ", " – ", " to "} {
		if head, _, found := strings.Cut(cleaned, sep); found {
			if d, ok := parseWithLayouts(strings.TrimSpace(head), now); ok {
				return d, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

func parseWithLayouts(text string, now time.Time) (time.Time, bool) {
	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return calendarDate(t.Year(), t.Month(), t.Day()), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return calendarDate(now.Year(), t.Month(), t.Day()), true
		}
	}
	return time.Time{}, false
}

func cleanDateText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return ordinalSuffix.ReplaceAllString(text, "$1")
}

func calendarDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns now truncated to its calendar date.
func Today(now time.Time) time.Time {
	return calendarDate(now.Year(), now.Month(), now.Day())
}
