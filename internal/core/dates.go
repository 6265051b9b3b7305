package core

import (
	"errors"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date: expected RFC 3339 or YYYY-MM-DD")

// ParseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD day (taken as
// midnight UTC). The result is normalized with Normalize.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Normalize(t), nil
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// ParseEndDate is ParseDate, except that a bare day is extended to its last
// millisecond so an inclusive range on that day covers the whole day.
func ParseEndDate(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return t, err
	}
	if len(strings.TrimSpace(s)) == len(dayLayout) {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// Normalize converts t to UTC at millisecond precision, the resolution every
// store persists.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// DayKey formats t as its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
