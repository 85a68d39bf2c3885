package event

import (
	"errors"
	"fmt"
	"strings"
)

// Listing limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ErrInvalidListOptions is wrapped by Normalize for rejected options.
var ErrInvalidListOptions = errors.New("invalid list options")

// SortColumns maps accepted sort keys to storage column names.
var SortColumns = map[string]string{
	"date":       "event_date",
	"title":      "title",
	"venue":      "venue",
	"source":     "source",
	"price":      "price",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

// Normalize applies defaults and validates o. The returned Sort is a
// storage column name.
func (o ListOptions) Normalize() (ListOptions, error) {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Sort == "" {
		o.Sort = "date"
	}
	column, ok := SortColumns[o.Sort]
	if !ok {
		return ListOptions{}, fmt.Errorf("%w: unknown sort field %q", ErrInvalidListOptions, o.Sort)
	}
	o.Sort = column
	switch SortOrder(strings.ToLower(string(o.Order))) {
	case "", OrderAsc:
		o.Order = OrderAsc
	case OrderDesc:
		o.Order = OrderDesc
	default:
		return ListOptions{}, fmt.Errorf("%w: unknown order %q", ErrInvalidListOptions, o.Order)
	}
	return o, nil
}
