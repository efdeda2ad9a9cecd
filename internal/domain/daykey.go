package domain

import (
	"fmt"
	"time"
)

const dayKeyLayout = "2006-01-02"

const DefaultTimeZone = "Asia/Kolkata"

// DayKey is a civil date in the board's fixed time zone, formatted YYYY-MM-DD.
type DayKey string

func (k DayKey) String() string {
	return string(k)
}

// Weekday returns the English weekday name of the key, e.g. "Monday".
func (k DayKey) Weekday() string {
	t, err := time.Parse(dayKeyLayout, string(k))
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

// Next returns the key of the following civil day.
func (k DayKey) Next() DayKey {
	t, err := time.Parse(dayKeyLayout, string(k))
	if err != nil {
		return k
	}
	return DayKey(t.AddDate(0, 0, 1).Format(dayKeyLayout))
}

// DateNormalizer collapses instants to day keys in one pinned zone, so writers and
// readers on differently configured hosts agree on what "today" is.
type DateNormalizer struct {
	loc *time.Location
	now func() time.Time
}

func NewDateNormalizer(zone string, now func() time.Time) (*DateNormalizer, error) {
	if zone == "" {
		zone = DefaultTimeZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	if now == nil {
		now = time.Now
	}
	return &DateNormalizer{loc: loc, now: now}, nil
}

func (n *DateNormalizer) Location() *time.Location {
	return n.loc
}

func (n *DateNormalizer) DayKey(t time.Time) DayKey {
	return DayKey(t.In(n.loc).Format(dayKeyLayout))
}

func (n *DateNormalizer) Today() DayKey {
	return n.DayKey(n.now())
}

// Now is the normalizer's clock, used to stamp creation times.
func (n *DateNormalizer) Now() time.Time {
	return n.now()
}

// ParseDayKey accepts a caller supplied YYYY-MM-DD date. Anything else is rejected;
// unparsable input is never coerced to today.
func (n *DateNormalizer) ParseDayKey(s string) (DayKey, error) {
	if s == "" {
		return "", ValidationError{Field: "date", Reason: "required"}
	}
	t, err := time.ParseInLocation(dayKeyLayout, s, n.loc)
	if err != nil {
		return "", ValidationError{Field: "date", Reason: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return DayKey(t.Format(dayKeyLayout)), nil
}
