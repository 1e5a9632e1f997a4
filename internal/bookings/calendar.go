package bookings

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

var (
	ErrDialogClosed = errors.New("bookings: no booking open")
	ErrPending      = errors.New("bookings: update already in flight")
	ErrBadState     = errors.New("bookings: action not allowed in current phase")
)

// Phase of the booking detail dialog.
type Phase string

const (
	PhaseClosed           Phase = "closed"
	PhaseOpen             Phase = "open"
	PhaseConfirmingStatus Phase = "confirmingStatus"
)

// DialogView is the booking detail dialog state.
type DialogView struct {
	Phase   Phase    `json:"phase"`
	Booking *Booking `json:"booking,omitempty"`
	// NextStatus is what the toggle will set.
	NextStatus Status `json:"nextStatus,omitempty"`
	Error      string `json:"error,omitempty"`
	Pending    bool   `json:"pending"`
}

// MonthView is the booking calendar page.
type MonthView struct {
	Grid   calendar.Grid `json:"grid"`
	Dialog DialogView    `json:"dialog"`
}

// CopyField is a value the drawer offers a copy button for.
type CopyField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SlotCard is one booked slot in the drawer.
type SlotCard struct {
	Time    string        `json:"time"`
	Client  ClientDetails `json:"client"`
	Copy    []CopyField   `json:"copy"`
	CanEdit bool          `json:"canEdit"`
}

// Drawer lists every booking of one day.
type Drawer struct {
	Date  calendar.Date `json:"date"`
	Title string        `json:"title"`
	Cards []SlotCard    `json:"cards"`
}

// Calendar drives the booking calendar for one session.
type Calendar struct {
	store  Store
	cache  *querycache.Cache
	logger *logging.Logger

	mu      sync.Mutex
	phase   Phase
	booking *Booking
	errMsg  string
	pending bool
}

func NewCalendar(store Store, cache *querycache.Cache, logger *logging.Logger) *Calendar {
	if logger == nil {
		logger = logging.Default()
	}
	return &Calendar{
		store:  store,
		cache:  cache,
		logger: logger.Component("bookings.calendar"),
		phase:  PhaseClosed,
	}
}

func (c *Calendar) summaries(ctx context.Context, month calendar.Month) ([]DaySummary, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(SummaryEntity, "month="+string(month)),
		func(ctx context.Context) ([]DaySummary, error) { return c.store.Summaries(ctx, month) })
}

// Month renders one "N Booking(s)" event per day with bookings.
func (c *Calendar) Month(ctx context.Context, month calendar.Month) (MonthView, error) {
	days, err := c.summaries(ctx, month)
	if err != nil {
		return MonthView{Grid: calendar.Build(month, nil, nil), Dialog: c.Dialog()}, err
	}
	counts := make(map[calendar.Date]int)
	for _, day := range days {
		counts[day.Date] += len(day.Slots)
	}
	highlighted := calendar.NewDateSet()
	events := make([]calendar.Event, 0, len(counts))
	for date, n := range counts {
		if n == 0 {
			continue
		}
		highlighted.Add(date)
		events = append(events, calendar.Event{
			Date:   date,
			Title:  Title(n),
			AllDay: true,
			Kind:   "bookings",
		})
	}
	return MonthView{Grid: calendar.Build(month, highlighted, events), Dialog: c.Dialog()}, nil
}

// OpenDay builds the drawer for date from the month summary.
func (c *Calendar) OpenDay(ctx context.Context, date calendar.Date) (Drawer, error) {
	days, err := c.summaries(ctx, date.Month())
	if err != nil {
		return Drawer{}, err
	}
	drawer := Drawer{Date: date, Cards: []SlotCard{}}
	for _, day := range days {
		if day.Date != date {
			continue
		}
		for _, slot := range day.Slots {
			drawer.Cards = append(drawer.Cards, slotCard(slot))
		}
	}
	sort.SliceStable(drawer.Cards, func(i, j int) bool { return drawer.Cards[i].Time < drawer.Cards[j].Time })
	drawer.Title = Title(len(drawer.Cards))
	return drawer, nil
}

func slotCard(slot SlotBooking) SlotCard {
	card := SlotCard{
		Time:    slot.Time,
		Client:  slot.ClientDetails,
		Copy:    []CopyField{},
		CanEdit: slot.ClientDetails.ID != "",
	}
	if slot.ClientDetails.Email != "" {
		card.Copy = append(card.Copy, CopyField{Label: "email", Value: slot.ClientDetails.Email})
	}
	if slot.ClientDetails.Phone != "" {
		card.Copy = append(card.Copy, CopyField{Label: "phone", Value: slot.ClientDetails.Phone})
	}
	return card
}

// Dialog returns the booking dialog state.
func (c *Calendar) Dialog() DialogView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Calendar) viewLocked() DialogView {
	v := DialogView{Phase: c.phase, Error: c.errMsg, Pending: c.pending}
	if c.booking != nil {
		b := *c.booking
		v.Booking = &b
		v.NextStatus = b.Status.Toggled()
	}
	return v
}

// EditBooking loads booking id and opens the detail dialog.
func (c *Calendar) EditBooking(ctx context.Context, id string) (DialogView, error) {
	c.mu.Lock()
	if c.pending {
		defer c.mu.Unlock()
		return c.viewLocked(), ErrPending
	}
	c.mu.Unlock()

	b, err := c.store.Get(ctx, id)
	if err != nil {
		c.logger.Error("load booking failed", "booking_id", id, "error", err)
		return c.Dialog(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseOpen
	c.booking = &b
	c.errMsg = ""
	return c.viewLocked(), nil
}

// RequestStatusToggle shows the confirmation prompt.
func (c *Calendar) RequestStatusToggle() (DialogView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOpen {
		return c.viewLocked(), ErrBadState
	}
	c.phase = PhaseConfirmingStatus
	c.errMsg = ""
	return c.viewLocked(), nil
}

// DeclineStatusToggle returns to the dialog without a request.
func (c *Calendar) DeclineStatusToggle() (DialogView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseConfirmingStatus || c.pending {
		return c.viewLocked(), ErrBadState
	}
	c.phase = PhaseOpen
	return c.viewLocked(), nil
}

// ConfirmStatusToggle sends exactly one status update. On success the dialog
// closes and the booking list is invalidated. The month summary is left
// cached, so its client status can lag until it expires or the month is
// reloaded.
func (c *Calendar) ConfirmStatusToggle(ctx context.Context) (DialogView, error) {
	c.mu.Lock()
	if c.phase != PhaseConfirmingStatus || c.booking == nil {
		defer c.mu.Unlock()
		return c.viewLocked(), ErrBadState
	}
	if c.pending {
		defer c.mu.Unlock()
		return c.viewLocked(), ErrPending
	}
	c.pending = true
	id := c.booking.ID
	next := c.booking.Status.Toggled()
	c.mu.Unlock()

	err := c.store.Update(ctx, id, Patch{Status: &next})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.logger.Error("booking status update failed", "booking_id", id, "status", next, "error", err)
		c.phase = PhaseOpen
		c.errMsg = "could not update status"
		if msg := apiclient.ServerMessage(err); msg != "" {
			c.errMsg += ": " + msg
		}
		return c.viewLocked(), err
	}
	c.logger.Info("booking status updated", "booking_id", id, "status", next)
	c.cache.Invalidate(BookingEntity)
	c.resetLocked()
	return c.viewLocked(), nil
}

// CloseDialog dismisses the dialog.
func (c *Calendar) CloseDialog() (DialogView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return c.viewLocked(), ErrPending
	}
	c.resetLocked()
	return c.viewLocked(), nil
}

func (c *Calendar) resetLocked() {
	c.phase = PhaseClosed
	c.booking = nil
	c.errMsg = ""
}

// List serves the bookings page.
func (c *Calendar) List(ctx context.Context, params apiclient.ListParams) (apiclient.Page[Booking], error) {
	key := querycache.NewKey(BookingEntity, params.Values().Encode())
	return querycache.Fetch(ctx, c.cache, key, func(ctx context.Context) (apiclient.Page[Booking], error) {
		return c.store.List(ctx, params)
	})
}

// Booking reads one booking for the bookings page.
func (c *Calendar) Booking(ctx context.Context, id string) (Booking, error) {
	key := querycache.NewKey(BookingEntity, "id="+id)
	return querycache.Fetch(ctx, c.cache, key, func(ctx context.Context) (Booking, error) {
		return c.store.Get(ctx, id)
	})
}

// Update applies a field-level edit from the bookings page. Date or slot
// changes move the booking between days, so summaries are dropped as well.
func (c *Calendar) Update(ctx context.Context, id string, patch Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := c.store.Update(ctx, id, patch); err != nil {
		c.logger.Error("booking update failed", "booking_id", id, "error", err)
		return err
	}
	c.cache.Invalidate(BookingEntity)
	if patch.BookingDate != nil || patch.Slot != nil {
		c.cache.Invalidate(SummaryEntity)
	}
	c.logger.Info("booking updated", "booking_id", id)
	return nil
}
