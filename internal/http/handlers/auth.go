package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	"github.com/faysalsarker-dev/piercing-cms/internal/http/middleware"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// AuthHandler serves sign-in, sign-up and sign-out.
type AuthHandler struct {
	identity   *identity.Service
	workspaces *appstate.Registry
	logger     *logging.Logger
}

func NewAuthHandler(svc *identity.Service, workspaces *appstate.Registry, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{identity: svc, workspaces: workspaces, logger: logger.Component("auth")}
}

// Credentials is the login and register form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (c Credentials) validate() map[string]string {
	fields := map[string]string{}
	if !strings.Contains(c.Email, "@") {
		fields["email"] = "enter a valid email"
	}
	if c.Password == "" {
		fields["password"] = "password is required"
	}
	return fields
}

// SessionResponse describes the signed-in admin.
type SessionResponse struct {
	Email       string               `json:"email"`
	Subject     string               `json:"sub"`
	Persistence identity.Persistence `json:"persistence"`
	ExpiresAt   time.Time            `json:"expiresAt"`
}

func sessionResponse(sess *identity.Session) SessionResponse {
	return SessionResponse{
		Email:       sess.Identity.Email,
		Subject:     sess.Identity.Subject,
		Persistence: sess.Persistence,
		ExpiresAt:   sess.ExpiresAt,
	}
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if fields := creds.validate(); len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "please fix the highlighted fields", FieldErrors: fields})
		return
	}
	sess, err := h.identity.SignIn(r.Context(), creds.Email, creds.Password, creds.Remember)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	h.workspaces.Mount(sess)
	http.SetCookie(w, h.identity.Cookie(sess))
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

// SignUp handles POST /api/auth/sign-up.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if fields := creds.validate(); len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "please fix the highlighted fields", FieldErrors: fields})
		return
	}
	confirmed, err := h.identity.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"confirmed": confirmed})
}

// SignOut handles POST /api/auth/sign-out and unmounts the workspace.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.identity.SignOut(r.Context(), sess.ID); err != nil {
			h.logger.Error("sign out failed", "email", sess.Identity.Email, "error", err)
			writeError(w, http.StatusBadGateway, "could not sign out, try again")
			return
		}
		h.workspaces.Teardown(sess.ID)
	}
	http.SetCookie(w, h.identity.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, "sign in required")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}
