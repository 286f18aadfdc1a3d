package timeutil

import (
	"errors"
	"strings"
	"time"
)

// DayLayout is the calendar-day format used for chart buckets.
const DayLayout = "2006-01-02"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	DayLayout,
}

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// TruncateToDay normalizes the timestamp to midnight in the provided zone.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayKey returns the YYYY-MM-DD calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(EnsureLocation(loc)).Format(DayLayout)
}

// Days lists every calendar day from start to end inclusive, ascending.
// It returns nil when end precedes start.
func Days(start, end time.Time, loc *time.Location) []time.Time {
	loc = EnsureLocation(loc)
	startDay := TruncateToDay(start, loc)
	endDay := TruncateToDay(end, loc)
	if endDay.Before(startDay) {
		return nil
	}
	days := make([]time.Time, 0, DaysBetween(startDay, endDay)+1)
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// DaysBetween counts whole calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
