package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ResolveActivityDate returns the calendar date that is dayOffset days after
// tripStart. Offset 0 is the start date itself. The offset is not validated
// here; callers reject negative offsets before they reach the aggregate.
func ResolveActivityDate(tripStart time.Time, dayOffset int) time.Time {
	return CalendarDate(tripStart).AddDate(0, 0, dayOffset)
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseCalendarDate accepts an ISO date ("2024-06-01") or an RFC 3339
// timestamp and returns the calendar date it names.
func ParseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return CalendarDate(t), nil
	}
	return time.Time{}, fmt.Errorf("%q is not a valid calendar date", s)
}
