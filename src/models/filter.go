package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var ErrInvalidFilter = errors.New("invalid trade filter")

// DateRange bounds trades by entry date, both ends inclusive. Empty ends are open.
type DateRange struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}

// ParseDateRange validates from and to as calendar dates.
func ParseDateRange(from, to string) (DateRange, error) {
	r := DateRange{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
	for _, d := range []string{r.From, r.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return DateRange{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFilter, d)
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return DateRange{}, fmt.Errorf("%w: from_date is after to_date", ErrInvalidFilter)
	}
	return r, nil
}

// Key identifies the range in cache keys.
func (r DateRange) Key() string {
	return r.From + ":" + r.To
}

// TradeFilter narrows a trade listing. Page and PageSize are 1-based; a zero
// PageSize returns every match.
type TradeFilter struct {
	DateRange
	Symbol   string
	Tag      string
	Page     int
	PageSize int
}

// Paged returns f with page defaults applied and the page size capped.
func (f TradeFilter) Paged() TradeFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the number of matches before the page.
func (f TradeFilter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
