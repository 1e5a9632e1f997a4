package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	sessions map[string]*identity.Session
}

func (s stubSessions) CookieName() string { return "pcms_session" }

func (s stubSessions) Current(_ context.Context, id string) (*identity.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, identity.ErrSessionNotFound
}

type stubVerifier struct{ token string }

func (v stubVerifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	if token != v.token {
		return identity.Identity{}, identity.ErrInvalidToken
	}
	return identity.Identity{Subject: "svc-1", Email: "ops@studio.test"}, nil
}

func guarded(t *testing.T, reg *appstate.Registry, verifier identity.Verifier) (http.Handler, *bool) {
	t.Helper()
	called := false
	sessions := stubSessions{sessions: map[string]*identity.Session{
		"good": {ID: "good", Identity: identity.Identity{Subject: "u1", Email: "owner@studio.test"}, Tokens: identity.Tokens{IDToken: "id-tok"}},
	}}
	h := RequireSession(SessionConfig{Sessions: sessions, Verifier: verifier, Workspaces: reg})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		sess, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		ws, ok := appstate.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, sess.ID, ws.SessionID)
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &called
}

func TestRequireSessionRedirectsWithoutCookie(t *testing.T) {
	h, called := guarded(t, appstate.NewRegistry(appstate.Deps{}), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule/weekly", nil))

	assert.False(t, *called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/login", body["redirect"])
}

func TestRequireSessionUnknownCookie(t *testing.T) {
	h, called := guarded(t, appstate.NewRegistry(appstate.Deps{}), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/shell", nil)
	req.AddCookie(&http.Cookie{Name: "pcms_session", Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.False(t, *called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionMountsWorkspace(t *testing.T) {
	reg := appstate.NewRegistry(appstate.Deps{})
	h, called := guarded(t, reg, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/shell", nil)
	req.AddCookie(&http.Cookie{Name: "pcms_session", Value: "good"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, reg.Len())
}

func TestRequireSessionAcceptsBearer(t *testing.T) {
	reg := appstate.NewRegistry(appstate.Deps{})
	h, called := guarded(t, reg, stubVerifier{token: "valid"})

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, *called)

	*called = false
	req = httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.False(t, *called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func roleServer(t *testing.T, status int, body string) *appstate.Registry {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return appstate.NewRegistry(appstate.Deps{Client: apiclient.New(apiclient.Config{BaseURL: srv.URL})})
}

func serveWithRole(reg *appstate.Registry) *httptest.ResponseRecorder {
	sess := &identity.Session{ID: "s1", Identity: identity.Identity{Email: "owner@studio.test"}, Tokens: identity.Tokens{IDToken: "t"}}
	ws := reg.Mount(sess)
	h := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(appstate.WithWorkspace(req.Context(), ws))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	assert.Equal(t, http.StatusOK, serveWithRole(roleServer(t, http.StatusOK, `{"role":"admin"}`)).Code)
	assert.Equal(t, http.StatusForbidden, serveWithRole(roleServer(t, http.StatusOK, `{"role":"staff"}`)).Code)

	rec := serveWithRole(roleServer(t, http.StatusUnauthorized, `{"message":"expired"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusBadGateway, serveWithRole(roleServer(t, http.StatusInternalServerError, ``)).Code)
}

func TestRequireRoleWithoutWorkspace(t *testing.T) {
	h := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be called")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
