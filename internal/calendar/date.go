// Package calendar holds calendar-day values and the month grid shared by the
// override and booking calendars. Days are always keyed by their yyyy-MM-dd
// string so no timezone conversion can move an entry to a neighbouring day.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

var (
	ErrInvalidDate  = errors.New("calendar: invalid date")
	ErrInvalidMonth = errors.New("calendar: invalid month")
)

// Date is a calendar day in yyyy-MM-dd form.
type Date string

// ParseDate accepts yyyy-MM-dd, optionally followed by a time part that starts
// with 'T' or a space. The time part is discarded, not converted:
// "2025-05-01T23:30:00-05:00" is May 1st.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if rest := s[len(dateLayout):]; rest != "" && rest[0] != 'T' && rest[0] != ' ' {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day := s[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, day); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(day), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func (d Date) String() string { return string(d) }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

// Month returns the month d belongs to.
func (d Date) Month() Month {
	if len(d) < len(monthLayout) {
		return ""
	}
	return Month(d[:len(monthLayout)])
}

// UnmarshalJSON normalises timestamps to their calendar day.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	if s == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month is a calendar month in yyyy-MM form.
type Month string

func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month(s), nil
}

// MonthOf returns the month containing t in t's own location.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

func (m Month) String() string { return string(m) }

// First returns the first day of m at midnight UTC.
func (m Month) First() time.Time {
	t, _ := time.Parse(monthLayout, string(m))
	return t
}

func (m Month) Next() Month { return MonthOf(m.First().AddDate(0, 1, 0)) }
func (m Month) Prev() Month { return MonthOf(m.First().AddDate(0, -1, 0)) }

// Contains reports whether d falls in m.
func (m Month) Contains(d Date) bool { return d.Month() == m }

// Days lists every date of m in order.
func (m Month) Days() []Date {
	first := m.First()
	var out []Date
	for t := first; t.Month() == first.Month(); t = t.AddDate(0, 0, 1) {
		out = append(out, DateOf(t))
	}
	return out
}
