package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

type contextKey string

const sessionKey contextKey = "session"

// bearerSessionPrefix marks transient sessions built from a verified bearer token.
const bearerSessionPrefix = "bearer:"

// SessionSource resolves cookie sessions. *identity.Service satisfies it.
type SessionSource interface {
	CookieName() string
	Current(ctx context.Context, id string) (*identity.Session, error)
}

// SessionConfig wires the session guard.
type SessionConfig struct {
	Sessions SessionSource
	// Verifier is optional; when set, API callers may present a bearer token
	// instead of the session cookie.
	Verifier   identity.Verifier
	Workspaces *appstate.Registry
	Logger     *logging.Logger
}

// RequireSession blocks requests without a live session and attaches the
// session and its workspace to the request context.
func RequireSession(cfg SessionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := resolveSession(r, cfg)
			if err != nil {
				if !errors.Is(err, identity.ErrSessionNotFound) && !errors.Is(err, identity.ErrInvalidToken) {
					logger.Error("session lookup failed", "path", r.URL.Path, "error", err)
				}
				Unauthorized(w, "sign in required")
				return
			}
			ws := cfg.Workspaces.Get(sess)
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = appstate.WithWorkspace(ctx, ws)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSession(r *http.Request, cfg SessionConfig) (*identity.Session, error) {
	if c, err := r.Cookie(cfg.Sessions.CookieName()); err == nil && c.Value != "" {
		return cfg.Sessions.Current(r.Context(), c.Value)
	}
	auth := r.Header.Get("Authorization")
	if cfg.Verifier == nil || !strings.HasPrefix(auth, "Bearer ") {
		return nil, identity.ErrSessionNotFound
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	id, err := cfg.Verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Session{
		ID:          bearerSessionPrefix + id.Subject,
		Identity:    id,
		Tokens:      identity.Tokens{IDToken: token},
		Persistence: identity.PersistSession,
	}, nil
}

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) (*identity.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*identity.Session)
	return sess, ok && sess != nil
}

// RequireRole allows only sessions whose server-reported role is role.
func RequireRole(role string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, ok := appstate.FromContext(r.Context())
			if !ok {
				Unauthorized(w, "sign in required")
				return
			}
			allowed, err := ws.HasRole(r.Context(), role)
			switch {
			case apiclient.IsAuthError(err):
				Unauthorized(w, "session expired")
				return
			case err != nil:
				logger.Error("role lookup failed", "email", ws.Identity.Email, "error", err)
				writeError(w, http.StatusBadGateway, "could not verify your role, try again", "")
				return
			case !allowed:
				writeError(w, http.StatusForbidden, "this page requires the "+role+" role", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
