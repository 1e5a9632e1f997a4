package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/schedule"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// ScheduleHandler serves the weekly board and the override calendar.
type ScheduleHandler struct {
	logger *logging.Logger
}

func NewScheduleHandler(logger *logging.Logger) *ScheduleHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleHandler{logger: logger.Component("schedule")}
}

// Routes mounts the schedule endpoints under /api/schedule.
func (h *ScheduleHandler) Routes(r chi.Router) {
	r.Get("/weekly", h.WeeklyBoard)
	r.Route("/weekly/{day}", func(r chi.Router) {
		r.Post("/open", h.WeeklyOpen)
		r.Post("/submit", h.WeeklySubmit)
		r.Post("/cancel", h.WeeklyCancel)
		r.Post("/delete", h.WeeklyDelete)
		r.Post("/delete/confirm", h.WeeklyConfirmDelete)
		r.Post("/delete/decline", h.WeeklyDeclineDelete)
	})
	r.Get("/overrides", h.OverrideMonth)
	r.Route("/overrides/{date}", func(r chi.Router) {
		r.Post("/open", h.OverrideOpen)
		r.Post("/submit", h.OverrideSubmit)
		r.Post("/cancel", h.OverrideCancel)
		r.Post("/delete", h.OverrideDelete)
		r.Post("/delete/confirm", h.OverrideConfirmDelete)
		r.Post("/delete/decline", h.OverrideDeclineDelete)
	})
}

// dialogResult writes a dialog view or, on error, the error with the view.
func (h *ScheduleHandler) dialogResult(w http.ResponseWriter, view any, err error) {
	if err != nil {
		respondError(w, h.logger, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ScheduleHandler) WeeklyBoard(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	board, err := ws.Weekly.Board(r.Context())
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func dayParam(w http.ResponseWriter, r *http.Request) (schedule.Weekday, bool) {
	day, err := schedule.ParseWeekday(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown weekday")
		return "", false
	}
	return day, true
}

func (h *ScheduleHandler) WeeklyOpen(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	day, ok := dayParam(w, r)
	if !ok {
		return
	}
	view, err := ws.Weekly.Open(r.Context(), day)
	h.dialogResult(w, view, err)
}

// weeklyFor rejects a dialog verb whose URL day is not the day the open
// weekly dialog belongs to.
func (h *ScheduleHandler) weeklyFor(w http.ResponseWriter, r *http.Request) (*schedule.WeeklyEditor, schedule.Weekday, bool) {
	ws, ok := workspace(w, r)
	if !ok {
		return nil, "", false
	}
	day, ok := dayParam(w, r)
	if !ok {
		return nil, "", false
	}
	if current := ws.Weekly.Dialog(); current.Phase != schedule.PhaseClosed && current.Key != day {
		respondError(w, h.logger, schedule.ErrBadState, current)
		return nil, "", false
	}
	return ws.Weekly, day, true
}

func (h *ScheduleHandler) WeeklySubmit(w http.ResponseWriter, r *http.Request) {
	editor, _, ok := h.weeklyFor(w, r)
	if !ok {
		return
	}
	var form schedule.WeeklySchedule
	if !decodeJSON(w, r, &form) {
		return
	}
	view, err := editor.Submit(r.Context(), form)
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) WeeklyCancel(w http.ResponseWriter, r *http.Request) {
	editor, _, ok := h.weeklyFor(w, r)
	if !ok {
		return
	}
	view, err := editor.Cancel()
	h.dialogResult(w, view, err)
}

// WeeklyDelete prompts from the open form for that day, or from the board
// card when no form is open.
func (h *ScheduleHandler) WeeklyDelete(w http.ResponseWriter, r *http.Request) {
	editor, day, ok := h.weeklyFor(w, r)
	if !ok {
		return
	}
	if editor.Dialog().Phase == schedule.PhaseEditing {
		view, err := editor.RequestDelete()
		h.dialogResult(w, view, err)
		return
	}
	view, err := editor.RequestDeleteFor(r.Context(), day)
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) WeeklyConfirmDelete(w http.ResponseWriter, r *http.Request) {
	editor, _, ok := h.weeklyFor(w, r)
	if !ok {
		return
	}
	view, err := editor.ConfirmDelete(r.Context())
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) WeeklyDeclineDelete(w http.ResponseWriter, r *http.Request) {
	editor, _, ok := h.weeklyFor(w, r)
	if !ok {
		return
	}
	view, err := editor.DeclineDelete()
	h.dialogResult(w, view, err)
}

// OverrideMonth handles GET /api/schedule/overrides?month=YYYY-MM. The
// current month is used when none is given.
func (h *ScheduleHandler) OverrideMonth(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	view, err := ws.Overrides.Month(r.Context(), month)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func dateParam(w http.ResponseWriter, r *http.Request) (calendar.Date, bool) {
	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be yyyy-MM-dd")
		return "", false
	}
	return date, true
}

func (h *ScheduleHandler) OverrideOpen(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	view, err := ws.Overrides.Open(r.Context(), date)
	h.dialogResult(w, view, err)
}

// overridesFor rejects a dialog verb whose URL date is not the date the open
// override dialog belongs to.
func (h *ScheduleHandler) overridesFor(w http.ResponseWriter, r *http.Request) (*schedule.OverrideEditor, bool) {
	ws, ok := workspace(w, r)
	if !ok {
		return nil, false
	}
	date, ok := dateParam(w, r)
	if !ok {
		return nil, false
	}
	if current := ws.Overrides.Dialog(); current.Phase != schedule.PhaseClosed && current.Key != date {
		respondError(w, h.logger, schedule.ErrBadState, current)
		return nil, false
	}
	return ws.Overrides, true
}

func (h *ScheduleHandler) OverrideSubmit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.overridesFor(w, r)
	if !ok {
		return
	}
	var form schedule.OverrideSchedule
	if !decodeJSON(w, r, &form) {
		return
	}
	view, err := editor.Submit(r.Context(), form)
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) OverrideCancel(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.overridesFor(w, r)
	if !ok {
		return
	}
	view, err := editor.Cancel()
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) OverrideDelete(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.overridesFor(w, r)
	if !ok {
		return
	}
	view, err := editor.RequestDelete()
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) OverrideConfirmDelete(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.overridesFor(w, r)
	if !ok {
		return
	}
	view, err := editor.ConfirmDelete(r.Context())
	h.dialogResult(w, view, err)
}

func (h *ScheduleHandler) OverrideDeclineDelete(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.overridesFor(w, r)
	if !ok {
		return
	}
	view, err := editor.DeclineDelete()
	h.dialogResult(w, view, err)
}

func monthParam(w http.ResponseWriter, r *http.Request) (calendar.Month, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return calendar.MonthOf(time.Now()), true
	}
	month, err := calendar.ParseMonth(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be yyyy-MM")
		return "", false
	}
	return month, true
}
