package schedule

import (
	"context"

	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// DayCard is one weekday on the board.
type DayCard struct {
	Day       Weekday  `json:"day"`
	HasRecord bool     `json:"hasRecord"`
	IsDayOff  bool     `json:"isDayOff"`
	Message   string   `json:"message,omitempty"`
	Slots     []string `json:"slots"`
	CanEdit   bool     `json:"canEdit"`
	CanDelete bool     `json:"canDelete"`
}

// WeeklyDialog is the weekly form state.
type WeeklyDialog = DialogView[Weekday, WeeklySchedule]

// Board is the weekly page view.
type Board struct {
	Days   []DayCard    `json:"days"`
	Dialog WeeklyDialog `json:"dialog"`
}

// WeeklyEditor drives the weekly availability page for one session.
type WeeklyEditor struct {
	store         WeeklyStore
	cache         *querycache.Cache
	dialog        *Dialog[Weekday, WeeklySchedule]
	dayOffMessage string
	logger        *logging.Logger
}

func NewWeeklyEditor(store WeeklyStore, cache *querycache.Cache, dayOffMessage string, logger *logging.Logger) *WeeklyEditor {
	if logger == nil {
		logger = logging.Default()
	}
	return &WeeklyEditor{
		store:         store,
		cache:         cache,
		dialog:        NewDialog[Weekday, WeeklySchedule](),
		dayOffMessage: dayOffMessage,
		logger:        logger.Component("schedule.weekly"),
	}
}

func (e *WeeklyEditor) records(ctx context.Context) (map[Weekday]WeeklySchedule, error) {
	list, err := querycache.Fetch(ctx, e.cache, querycache.NewKey(WeeklyEntity), e.store.ListWeekly)
	if err != nil {
		return nil, err
	}
	out := make(map[Weekday]WeeklySchedule, len(list))
	for _, rec := range list {
		day, err := ParseWeekday(string(rec.Day))
		if err != nil {
			e.logger.Warn("skipping weekly record with unknown day", "day", rec.Day)
			continue
		}
		rec.Day = day
		out[day] = rec
	}
	return out, nil
}

// Board renders all seven days in Sunday-first order.
func (e *WeeklyEditor) Board(ctx context.Context) (Board, error) {
	recs, err := e.records(ctx)
	if err != nil {
		return Board{Dialog: e.dialog.View()}, err
	}
	days := make([]DayCard, 0, len(Weekdays))
	for _, day := range Weekdays {
		card := DayCard{Day: day, CanEdit: true, Slots: []string{}}
		if rec, ok := recs[day]; ok {
			card.HasRecord = true
			card.CanDelete = true
			card.IsDayOff = rec.IsDayOff
			if rec.IsDayOff {
				card.Message = rec.Message
			} else if rec.Slots != nil {
				card.Slots = rec.Slots
			}
		}
		days = append(days, card)
	}
	return Board{Days: days, Dialog: e.dialog.View()}, nil
}

// Open loads day's record into the form, or seeds a blank open day.
func (e *WeeklyEditor) Open(ctx context.Context, day Weekday) (WeeklyDialog, error) {
	recs, err := e.records(ctx)
	if err != nil {
		return e.dialog.View(), err
	}
	if rec, ok := recs[day]; ok {
		return e.dialog.OpenExisting(day, rec)
	}
	return e.dialog.OpenBlank(day, WeeklySchedule{
		Day:          day,
		Availability: Availability{IsDayOff: false, Message: e.dayOffMessage, Slots: []string{}},
	})
}

// Submit validates the form and creates or updates the day's record.
func (e *WeeklyEditor) Submit(ctx context.Context, form WeeklySchedule) (WeeklyDialog, error) {
	cur := e.dialog.View()
	form.Day = cur.Key
	if form.ID == "" {
		form.ID = cur.Form.ID
	}
	form.Availability = form.Availability.Normalize()

	view, err := e.dialog.Submit(ctx, form,
		func(f WeeklySchedule) error { return f.Validate() },
		func(ctx context.Context, creating bool, day Weekday, f WeeklySchedule) error {
			var err error
			if creating {
				err = e.store.CreateWeekly(ctx, f)
			} else {
				err = e.store.UpdateWeekly(ctx, day, f)
			}
			if err != nil {
				e.logger.Error("weekly save failed", "day", day, "creating", creating, "error", err)
				return &RequestError{Op: "could not save " + string(day), Err: err}
			}
			return nil
		})
	if err == nil {
		e.logger.Info("weekly schedule saved", "day", form.Day, "day_off", form.IsDayOff, "slots", len(form.Slots))
		e.refresh(ctx)
	}
	return view, err
}

// Cancel discards the open form.
func (e *WeeklyEditor) Cancel() (WeeklyDialog, error) { return e.dialog.Cancel() }

// RequestDelete asks for confirmation from the open edit form.
func (e *WeeklyEditor) RequestDelete() (WeeklyDialog, error) { return e.dialog.RequestDelete() }

// RequestDeleteFor asks for confirmation from a board card.
func (e *WeeklyEditor) RequestDeleteFor(ctx context.Context, day Weekday) (WeeklyDialog, error) {
	recs, err := e.records(ctx)
	if err != nil {
		return e.dialog.View(), err
	}
	rec, ok := recs[day]
	if !ok {
		return e.dialog.View(), ErrNoRecord
	}
	return e.dialog.RequestDeleteFor(day, rec)
}

func (e *WeeklyEditor) DeclineDelete() (WeeklyDialog, error) { return e.dialog.DeclineDelete() }

// ConfirmDelete removes the record and re-fetches the board once.
func (e *WeeklyEditor) ConfirmDelete(ctx context.Context) (WeeklyDialog, error) {
	view, err := e.dialog.ConfirmDelete(ctx, func(ctx context.Context, day Weekday) error {
		if err := e.store.DeleteWeekly(ctx, day); err != nil {
			e.logger.Error("weekly delete failed", "day", day, "error", err)
			return &RequestError{Op: "could not delete " + string(day), Err: err}
		}
		return nil
	})
	if err == nil {
		e.logger.Info("weekly schedule deleted")
		e.refresh(ctx)
	}
	return view, err
}

// Dialog returns the current form state.
func (e *WeeklyEditor) Dialog() WeeklyDialog { return e.dialog.View() }

// refresh drops cached weekly reads and loads the list once so the next
// render reflects the mutation.
func (e *WeeklyEditor) refresh(ctx context.Context) {
	e.cache.Invalidate(WeeklyEntity)
	if _, err := e.records(ctx); err != nil {
		e.logger.Warn("weekly refetch failed", "error", err)
	}
}
