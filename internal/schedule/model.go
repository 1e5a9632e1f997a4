// Package schedule implements the weekly availability board and the date
// override calendar, both backed by the business API.
package schedule

import (
	"fmt"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
)

// Weekday names a day of the recurring week, Sunday through Saturday.
type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// Weekdays is the board order.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday matches a weekday name case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	for _, d := range Weekdays {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// Availability is the shared body of weekly and override records. A day off
// carries a message and its slots are ignored; an open day needs at least one
// slot.
type Availability struct {
	IsDayOff bool     `json:"isDayOff"`
	Message  string   `json:"message"`
	Slots    []string `json:"slots"`
}

// Validate checks the record locally before any request is sent.
func (a Availability) Validate() error {
	fields := map[string]string{}
	if a.IsDayOff {
		if strings.TrimSpace(a.Message) == "" {
			fields["message"] = "message is required for a day off"
		}
	} else {
		if len(a.Slots) == 0 {
			fields["slots"] = "add at least one slot"
		}
		for i, s := range a.Slots {
			if strings.TrimSpace(s) == "" {
				fields[fmt.Sprintf("slots[%d]", i)] = "slot cannot be blank"
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Normalize trims slot text. A nil slot list stays nil and the message is
// left as entered, so an unchanged record is sent back exactly as loaded.
func (a Availability) Normalize() Availability {
	if a.Slots == nil {
		return a
	}
	slots := make([]string, 0, len(a.Slots))
	for _, s := range a.Slots {
		slots = append(slots, strings.TrimSpace(s))
	}
	a.Slots = slots
	return a
}

// WeeklySchedule is the recurring availability for one weekday.
type WeeklySchedule struct {
	ID  string  `json:"_id,omitempty"`
	Day Weekday `json:"day"`
	Availability
}

// OverrideSchedule replaces the weekly rule for one calendar day.
type OverrideSchedule struct {
	ID   string        `json:"_id,omitempty"`
	Date calendar.Date `json:"date"`
	Availability
}
