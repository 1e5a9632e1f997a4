package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
	"github.com/google/uuid"
)

// ServiceConfig configures session lifetimes and the cookie.
type ServiceConfig struct {
	DurableTTL   time.Duration
	EphemeralTTL time.Duration
	CookieName   string
	CookieSecure bool
}

// Service combines a Provider with the session store.
type Service struct {
	provider Provider
	store    *SessionStore
	cfg      ServiceConfig
	metrics  *metrics.ConsoleMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(provider Provider, store *SessionStore, cfg ServiceConfig, m *metrics.ConsoleMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "pcms_session"
	}
	return &Service{
		provider: provider,
		store:    store,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.Component("identity"),
		now:      time.Now,
	}
}

// CookieName is the session cookie name.
func (s *Service) CookieName() string { return s.cfg.CookieName }

// SignIn authenticates and stores a session. remember selects durable
// persistence; otherwise the session ends with the browser.
func (s *Service) SignIn(ctx context.Context, email, password string, remember bool) (*Session, error) {
	persistence := PersistSession
	ttl := s.cfg.EphemeralTTL
	if remember {
		persistence = PersistDurable
		ttl = s.cfg.DurableTTL
	}

	tokens, id, err := s.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.metrics.ObserveSignIn("failed", string(persistence))
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Info("sign in rejected", "email", email)
		} else {
			s.logger.Error("sign in failed", "email", email, "error", err)
		}
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:          uuid.NewString(),
		Identity:    id,
		Tokens:      tokens,
		Persistence: persistence,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.store.Save(ctx, sess, ttl); err != nil {
		s.metrics.ObserveSignIn("error", string(persistence))
		return nil, err
	}
	s.metrics.ObserveSignIn("ok", string(persistence))
	s.logger.Info("signed in", "email", id.Email, "persistence", persistence)
	return sess, nil
}

func (s *Service) SignUp(ctx context.Context, email, password string) (bool, error) {
	confirmed, err := s.provider.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Info("sign up rejected", "email", email, "error", err)
		return false, err
	}
	s.logger.Info("signed up", "email", email, "confirmed", confirmed)
	return confirmed, nil
}

// SignOut revokes provider tokens and removes the session. A missing
// session is not an error.
func (s *Service) SignOut(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.provider.SignOut(ctx, sess.Tokens); err != nil {
		s.logger.Warn("provider sign out failed", "email", sess.Identity.Email, "error", err)
	}
	return s.store.Delete(ctx, id)
}

// Current returns the live session for id.
func (s *Service) Current(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Cookie builds the session cookie. Only durable sessions get a Max-Age.
func (s *Service) Cookie(sess *Session) *http.Cookie {
	c := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if sess.Persistence == PersistDurable {
		c.MaxAge = int(sess.ExpiresAt.Sub(s.now()).Seconds())
	}
	return c
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
