package schedule

import (
	"context"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

const (
	dayOffTitle = "Day Off"
	// event kinds
	KindDayOff = "dayOff"
	KindSlot   = "slot"
)

// OverrideDialog is the override form state.
type OverrideDialog = DialogView[calendar.Date, OverrideSchedule]

// OverrideMonth is the override calendar view.
type OverrideMonth struct {
	Grid   calendar.Grid  `json:"grid"`
	Dialog OverrideDialog `json:"dialog"`
}

// OverrideEditor drives the date override calendar for one session.
type OverrideEditor struct {
	store         OverrideStore
	cache         *querycache.Cache
	dialog        *Dialog[calendar.Date, OverrideSchedule]
	dayOffMessage string
	logger        *logging.Logger
}

func NewOverrideEditor(store OverrideStore, cache *querycache.Cache, dayOffMessage string, logger *logging.Logger) *OverrideEditor {
	if logger == nil {
		logger = logging.Default()
	}
	return &OverrideEditor{
		store:         store,
		cache:         cache,
		dialog:        NewDialog[calendar.Date, OverrideSchedule](),
		dayOffMessage: dayOffMessage,
		logger:        logger.Component("schedule.overrides"),
	}
}

func (e *OverrideEditor) records(ctx context.Context) (map[calendar.Date]OverrideSchedule, error) {
	list, err := querycache.Fetch(ctx, e.cache, querycache.NewKey(OverrideEntity), e.store.ListOverrides)
	if err != nil {
		return nil, err
	}
	out := make(map[calendar.Date]OverrideSchedule, len(list))
	for _, rec := range list {
		if rec.Date == "" {
			continue
		}
		out[rec.Date] = rec
	}
	return out, nil
}

// Events renders one override: a single "Day Off" event carrying the message,
// or one event per slot each carrying the full slot list.
func Events(rec OverrideSchedule) []calendar.Event {
	if rec.IsDayOff {
		return []calendar.Event{{
			Date:    rec.Date,
			Title:   dayOffTitle,
			Tooltip: rec.Message,
			AllDay:  true,
			Kind:    KindDayOff,
		}}
	}
	tooltip := strings.Join(rec.Slots, ", ")
	events := make([]calendar.Event, 0, len(rec.Slots))
	for _, slot := range rec.Slots {
		events = append(events, calendar.Event{
			Date:    rec.Date,
			Title:   slot,
			Tooltip: tooltip,
			AllDay:  true,
			Kind:    KindSlot,
		})
	}
	return events
}

// Month renders month with every override day highlighted. The highlight set
// is rebuilt from the fetched records on every call.
func (e *OverrideEditor) Month(ctx context.Context, month calendar.Month) (OverrideMonth, error) {
	recs, err := e.records(ctx)
	if err != nil {
		return OverrideMonth{Grid: calendar.Build(month, nil, nil), Dialog: e.dialog.View()}, err
	}
	highlighted := calendar.NewDateSet()
	var events []calendar.Event
	for date, rec := range recs {
		highlighted.Add(date)
		events = append(events, Events(rec)...)
	}
	return OverrideMonth{
		Grid:   calendar.Build(month, highlighted, events),
		Dialog: e.dialog.View(),
	}, nil
}

// Open is used for both a cell click and an event click: it loads the
// override for date or seeds a blank one.
func (e *OverrideEditor) Open(ctx context.Context, date calendar.Date) (OverrideDialog, error) {
	recs, err := e.records(ctx)
	if err != nil {
		return e.dialog.View(), err
	}
	if rec, ok := recs[date]; ok {
		return e.dialog.OpenExisting(date, rec)
	}
	return e.dialog.OpenBlank(date, OverrideSchedule{
		Date:         date,
		Availability: Availability{IsDayOff: false, Message: e.dayOffMessage, Slots: []string{}},
	})
}

func (e *OverrideEditor) Submit(ctx context.Context, form OverrideSchedule) (OverrideDialog, error) {
	cur := e.dialog.View()
	form.Date = cur.Key
	if form.ID == "" {
		form.ID = cur.Form.ID
	}
	form.Availability = form.Availability.Normalize()

	view, err := e.dialog.Submit(ctx, form,
		func(f OverrideSchedule) error { return f.Validate() },
		func(ctx context.Context, creating bool, date calendar.Date, f OverrideSchedule) error {
			var err error
			if creating {
				err = e.store.CreateOverride(ctx, f)
			} else {
				err = e.store.UpdateOverride(ctx, date, f)
			}
			if err != nil {
				e.logger.Error("override save failed", "date", date, "creating", creating, "error", err)
				return &RequestError{Op: "could not save " + string(date), Err: err}
			}
			return nil
		})
	if err == nil {
		e.logger.Info("override saved", "date", form.Date, "day_off", form.IsDayOff)
		e.refresh(ctx)
	}
	return view, err
}

func (e *OverrideEditor) Cancel() (OverrideDialog, error)        { return e.dialog.Cancel() }
func (e *OverrideEditor) RequestDelete() (OverrideDialog, error) { return e.dialog.RequestDelete() }
func (e *OverrideEditor) DeclineDelete() (OverrideDialog, error) { return e.dialog.DeclineDelete() }

func (e *OverrideEditor) ConfirmDelete(ctx context.Context) (OverrideDialog, error) {
	view, err := e.dialog.ConfirmDelete(ctx, func(ctx context.Context, date calendar.Date) error {
		if err := e.store.DeleteOverride(ctx, date); err != nil {
			e.logger.Error("override delete failed", "date", date, "error", err)
			return &RequestError{Op: "could not delete " + string(date), Err: err}
		}
		return nil
	})
	if err == nil {
		e.logger.Info("override deleted")
		e.refresh(ctx)
	}
	return view, err
}

func (e *OverrideEditor) Dialog() OverrideDialog { return e.dialog.View() }

func (e *OverrideEditor) refresh(ctx context.Context) {
	e.cache.Invalidate(OverrideEntity)
	if _, err := e.records(ctx); err != nil {
		e.logger.Warn("override refetch failed", "error", err)
	}
}
