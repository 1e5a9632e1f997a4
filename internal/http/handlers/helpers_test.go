package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/labels"
	"github.com/faysalsarker-dev/piercing-cms/internal/preferences"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
)

// fakeAPI stands in for the business API. Routes are keyed "METHOD /path".
type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
	routes map[string]http.HandlerFunc
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (f *fakeAPI) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func newFakeAPI(t *testing.T, routes map[string]http.HandlerFunc) (*fakeAPI, *apiclient.Client) {
	t.Helper()
	f := &fakeAPI{bodies: map[string]string{}, routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.bodies[key] = string(data)
		h, ok := f.routes[key]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(data)))
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, apiclient.New(apiclient.Config{BaseURL: srv.URL})
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func fail(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

type testConsole struct {
	router http.Handler
	ws     *appstate.Workspace
	prefs  *preferences.Store
}

// newTestConsole mounts the guarded routes with a pre-authenticated workspace.
func newTestConsole(t *testing.T, client *apiclient.Client) *testConsole {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg := appstate.NewRegistry(appstate.Deps{Client: client, DayOffMessage: "We are closed today."})
	sess := &identity.Session{
		ID:       "sess-1",
		Identity: identity.Identity{Subject: "sub-1", Email: "owner@studio.test"},
		Tokens:   identity.Tokens{IDToken: "id-token"},
	}
	ws := reg.Mount(sess)

	renderer, err := labels.NewRenderer()
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	prefs := preferences.NewStore(rdb)
	catalog := resources.DefaultCatalog()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(appstate.WithWorkspace(req.Context(), ws)))
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Route("/schedule", NewScheduleHandler(nil).Routes)
		r.Route("/bookings", NewBookingsHandler(nil).Routes)
		shell := NewShellHandler(prefs, catalog, "admin", nil)
		r.Get("/shell", shell.Shell)
		r.Get("/preferences", shell.GetPreferences)
		r.Put("/preferences", shell.PutPreferences)
		NewResourcesHandler(catalog, renderer, "admin", nil).Routes(r)
	})
	return &testConsole{router: r, ws: ws, prefs: prefs}
}

func (c *testConsole) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}
