// Package bookings renders the monthly booking calendar, the per-day detail
// drawer and the booking status dialog.
package bookings

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
)

// Status of an online booking.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool { return s == StatusConfirmed || s == StatusCancelled }

// Toggled flips confirmed and cancelled. Anything else becomes cancelled.
func (s Status) Toggled() Status {
	if s == StatusCancelled {
		return StatusConfirmed
	}
	return StatusCancelled
}

// ClientDetails is the client block of one booked slot.
type ClientDetails struct {
	ID      string  `json:"_id,omitempty"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Service string  `json:"service"`
	Price   float64 `json:"price"`
	Status  Status  `json:"status"`
	Web     bool    `json:"web"`
}

// SlotBooking is one booked slot within a day summary.
type SlotBooking struct {
	Time          string        `json:"time"`
	ClientDetails ClientDetails `json:"clientDetails"`
}

// DaySummary is the server's per-day booking summary for a month.
type DaySummary struct {
	Date  calendar.Date `json:"date"`
	Slots []SlotBooking `json:"slots"`
}

// Booking is a single online booking. The console never creates one.
type Booking struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email"`
	Service     string        `json:"service"`
	Price       float64       `json:"price"`
	BookingDate calendar.Date `json:"bookingDate"`
	Slot        string        `json:"slot"`
	Status      Status        `json:"status"`
	Web         bool          `json:"web"`
}

// Patch is a field-level booking update; nil fields are left untouched.
type Patch struct {
	Name        *string        `json:"name,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Email       *string        `json:"email,omitempty"`
	Service     *string        `json:"service,omitempty"`
	Price       *float64       `json:"price,omitempty"`
	BookingDate *calendar.Date `json:"bookingDate,omitempty"`
	Slot        *string        `json:"slot,omitempty"`
	Status      *Status        `json:"status,omitempty"`
}

var ErrEmptyPatch = errors.New("bookings: nothing to update")

// FieldError reports an invalid patch field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("bookings: %s: %s", e.Field, e.Message)
}

// Validate checks the patch before it is sent.
func (p Patch) Validate() error {
	if p == (Patch{}) {
		return ErrEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &FieldError{Field: "name", Message: "name cannot be blank"}
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return &FieldError{Field: "email", Message: "invalid email address"}
		}
	}
	if p.Price != nil && *p.Price < 0 {
		return &FieldError{Field: "price", Message: "price cannot be negative"}
	}
	if p.BookingDate != nil {
		if _, err := calendar.ParseDate(string(*p.BookingDate)); err != nil {
			return &FieldError{Field: "bookingDate", Message: "use yyyy-MM-dd"}
		}
	}
	if p.Slot != nil && strings.TrimSpace(*p.Slot) == "" {
		return &FieldError{Field: "slot", Message: "slot cannot be blank"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &FieldError{Field: "status", Message: "status must be confirmed or cancelled"}
	}
	return nil
}

// Title is the calendar event text for a day with n bookings.
func Title(n int) string {
	return fmt.Sprintf("%d Booking(s)", n)
}
