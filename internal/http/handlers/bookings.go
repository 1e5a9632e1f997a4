package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/bookings"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// BookingsHandler serves the booking calendar, its detail dialog and the
// bookings list page.
type BookingsHandler struct {
	logger *logging.Logger
}

func NewBookingsHandler(logger *logging.Logger) *BookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingsHandler{logger: logger.Component("bookings")}
}

// Routes mounts the endpoints under /api/bookings.
func (h *BookingsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/calendar", h.Month)
	r.Get("/calendar/{date}", h.Day)
	r.Get("/dialog", h.Dialog)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Post("/open", h.Open)
		r.Post("/status/request", h.RequestStatus)
		r.Post("/status/confirm", h.ConfirmStatus)
		r.Post("/status/decline", h.DeclineStatus)
		r.Post("/close", h.Close)
	})
}

func (h *BookingsHandler) dialogResult(w http.ResponseWriter, view bookings.DialogView, err error) {
	if err != nil {
		respondError(w, h.logger, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Month handles GET /api/bookings/calendar?month=YYYY-MM.
func (h *BookingsHandler) Month(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	view, err := ws.Bookings.Month(r.Context(), month)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Day handles GET /api/bookings/calendar/{date}: the detail drawer.
func (h *BookingsHandler) Day(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	drawer, err := ws.Bookings.OpenDay(r.Context(), date)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, drawer)
}

func (h *BookingsHandler) Dialog(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ws.Bookings.Dialog())
}

func (h *BookingsHandler) Open(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	view, err := ws.Bookings.EditBooking(r.Context(), chi.URLParam(r, "id"))
	h.dialogResult(w, view, err)
}

// openFor guards the dialog verbs so they only act on the booking in the URL.
func (h *BookingsHandler) openFor(w http.ResponseWriter, r *http.Request) (*bookings.Calendar, bool) {
	ws, ok := workspace(w, r)
	if !ok {
		return nil, false
	}
	view := ws.Bookings.Dialog()
	if view.Booking == nil || view.Booking.ID != chi.URLParam(r, "id") {
		respondError(w, h.logger, bookings.ErrDialogClosed, view)
		return nil, false
	}
	return ws.Bookings, true
}

func (h *BookingsHandler) RequestStatus(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.openFor(w, r)
	if !ok {
		return
	}
	view, err := cal.RequestStatusToggle()
	h.dialogResult(w, view, err)
}

func (h *BookingsHandler) ConfirmStatus(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.openFor(w, r)
	if !ok {
		return
	}
	view, err := cal.ConfirmStatusToggle(r.Context())
	h.dialogResult(w, view, err)
}

func (h *BookingsHandler) DeclineStatus(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.openFor(w, r)
	if !ok {
		return
	}
	view, err := cal.DeclineStatusToggle()
	h.dialogResult(w, view, err)
}

func (h *BookingsHandler) Close(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	view, err := ws.Bookings.CloseDialog()
	h.dialogResult(w, view, err)
}

// List handles GET /api/bookings with list filters passed through.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	page, err := ws.Bookings.List(r.Context(), apiclient.ParseListParams(r.URL.Query()))
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	if page.Items == nil {
		page.Items = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	b, err := ws.Bookings.Booking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Update handles PATCH /api/bookings/{id}.
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	var patch bookings.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := ws.Bookings.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
