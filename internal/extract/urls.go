package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// BaseURL returns the URL relative links of src resolve against: the
// configured base, or the scheme and host of the listing URL.
func BaseURL(src event.Source) (*url.URL, error) {
	raw := src.BaseURL
	if raw == "" {
		raw = src.URL
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", raw)
	}
	if src.BaseURL == "" {
		return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
	}
	return u, nil
}

// ResolveURL makes ref absolute against base. Only http(s) results are
// accepted.
func ResolveURL(base *url.URL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	if !u.IsAbs() {
		if base == nil {
			return "", fmt.Errorf("relative url %q without base", ref)
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", ref)
	}
	return u.String(), nil
}

// LastPathSegment returns the final non-empty path segment of raw followed
// by its query, so "/event?id=101" and "/event?id=202" stay distinct.
func LastPathSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	seg := parts[len(parts)-1]
	switch {
	case u.RawQuery == "":
		return seg
	case seg == "":
		return u.RawQuery
	default:
		return seg + "?" + u.RawQuery
	}
}
