package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	"github.com/faysalsarker-dev/piercing-cms/internal/bookings"
	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/http/middleware"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
	"github.com/faysalsarker-dev/piercing-cms/internal/schedule"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

const maxUploadBytes = 10 << 20

// ErrorResponse is the body of every failed console request.
type ErrorResponse struct {
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	// Dialog carries the dialog state when a dialog action failed, so the
	// form can be re-rendered with the user's input.
	Dialog any `json:"dialog,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// respondError maps err to a status and writes it. dialog, when non-nil, is
// echoed back so the client keeps the open form.
func respondError(w http.ResponseWriter, logger *logging.Logger, err error, dialog any) {
	status, body := classify(err)
	body.Dialog = dialog
	if body.Redirect != "" {
		w.Header().Set("Location", body.Redirect)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, ErrorResponse) {
	var (
		schedErr *schedule.ValidationError
		resErr   *resources.ValidationError
		fieldErr *bookings.FieldError
		reqErr   *schedule.RequestError
	)
	switch {
	case apiclient.IsAuthError(err):
		return http.StatusUnauthorized, ErrorResponse{Error: "your session has expired, sign in again", Redirect: middleware.LoginPath}
	case errors.As(err, &schedErr):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "please fix the highlighted fields", FieldErrors: schedErr.Fields}
	case errors.As(err, &resErr):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "please fix the highlighted fields", FieldErrors: resErr.Fields}
	case errors.As(err, &fieldErr):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: fieldErr.Message, FieldErrors: map[string]string{fieldErr.Field: fieldErr.Message}}
	case errors.Is(err, bookings.ErrEmptyPatch):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "nothing to update"}
	case errors.Is(err, calendar.ErrInvalidDate), errors.Is(err, calendar.ErrInvalidMonth), errors.Is(err, schedule.ErrInvalidDay):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, schedule.ErrPending), errors.Is(err, bookings.ErrPending):
		return http.StatusConflict, ErrorResponse{Error: "a request is already in progress"}
	case errors.Is(err, schedule.ErrNotOpen), errors.Is(err, schedule.ErrBadState),
		errors.Is(err, bookings.ErrBadState), errors.Is(err, bookings.ErrDialogClosed):
		return http.StatusConflict, ErrorResponse{Error: "that action is not available right now"}
	case errors.Is(err, schedule.ErrNoRecord):
		return http.StatusNotFound, ErrorResponse{Error: "nothing saved for that day"}
	case errors.Is(err, resources.ErrUnknownEntity), errors.Is(err, apiclient.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found"}
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "invalid email or password"}
	case errors.Is(err, identity.ErrUserExists):
		return http.StatusConflict, ErrorResponse{Error: "an account with that email already exists"}
	case errors.Is(err, identity.ErrWeakPassword):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "password does not meet the policy", FieldErrors: map[string]string{"password": "password is too weak"}}
	case errors.Is(err, identity.ErrNotConfirmed):
		return http.StatusForbidden, ErrorResponse{Error: "confirm your email before signing in"}
	case errors.Is(err, identity.ErrChallenge):
		return http.StatusForbidden, ErrorResponse{Error: "this account needs an extra sign-in step the console does not support"}
	case errors.Is(err, apiclient.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: messageOr(err, "the record changed, reload and try again")}
	case errors.As(err, &reqErr):
		return http.StatusBadGateway, ErrorResponse{Error: reqErr.Error()}
	default:
		return http.StatusBadGateway, ErrorResponse{Error: messageOr(err, "request failed, try again")}
	}
}

func messageOr(err error, fallback string) string {
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// workspace returns the session workspace or answers 401.
func workspace(w http.ResponseWriter, r *http.Request) (*appstate.Workspace, bool) {
	ws, ok := appstate.FromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, "sign in required")
		return nil, false
	}
	return ws, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
