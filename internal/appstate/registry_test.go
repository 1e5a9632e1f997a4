package appstate

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(id, token string) *identity.Session {
	return &identity.Session{
		ID:       id,
		Identity: identity.Identity{Subject: "sub-" + id, Email: "Owner@Studio.test"},
		Tokens:   identity.Tokens{IDToken: token},
	}
}

func TestRegistryMountGetTeardown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewConsoleMetrics(reg)
	r := NewRegistry(Deps{Metrics: m})

	ws := r.Mount(testSession("s1", "tok-1"))
	assert.Same(t, ws, r.Get(testSession("s1", "tok-1")))
	assert.Equal(t, 1, r.Len())

	lazily := r.Get(testSession("s2", "tok-2"))
	require.NotNil(t, lazily)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2.0, mountedGauge(t, reg))

	assert.True(t, r.Teardown("s1"))
	assert.False(t, r.Teardown("s1"))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1.0, mountedGauge(t, reg))
}

func mountedGauge(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "pcms_appstate_workspaces_mounted" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("workspaces gauge not registered")
	return 0
}

func TestRegistryRemountsOnNewToken(t *testing.T) {
	r := NewRegistry(Deps{})
	first := r.Mount(testSession("s1", "tok-1"))
	second := r.Get(testSession("s1", "tok-rotated"))
	assert.NotSame(t, first, second)
	assert.Same(t, second, r.Get(testSession("s1", "tok-rotated")))
}

func TestRegistrySweepEvictsIdle(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(Deps{IdleTTL: time.Hour})
	r.now = func() time.Time { return now }

	r.Mount(testSession("idle", "a"))
	r.Mount(testSession("busy", "b"))

	now = now.Add(50 * time.Minute)
	r.Get(testSession("busy", "b"))

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Same(t, r.Get(testSession("busy", "b")), r.Get(testSession("busy", "b")))
}

func TestRunStopsOnCancel(t *testing.T) {
	r := NewRegistry(Deps{IdleTTL: time.Nanosecond})
	r.Mount(testSession("s1", "a"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWorkspaceRoleIsCached(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/users/role", r.URL.Path)
		assert.Equal(t, "owner@studio.test", r.URL.Query().Get("email"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"role":"admin"}}`))
	}))
	defer srv.Close()

	r := NewRegistry(Deps{Client: apiclient.New(apiclient.Config{BaseURL: srv.URL}), CacheTTL: time.Minute})
	ws := r.Mount(testSession("s1", "tok-1"))

	ok, err := ws.HasRole(context.Background(), "Admin")
	require.NoError(t, err)
	assert.True(t, ok)
	role, err := ws.Role(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", role)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWorkspaceRoleUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	r := NewRegistry(Deps{Client: apiclient.New(apiclient.Config{BaseURL: srv.URL})})
	ws := r.Mount(testSession("s1", "tok"))
	_, err := ws.Role(context.Background())
	assert.True(t, apiclient.IsAuthError(err))
}

func TestDecodeRole(t *testing.T) {
	for raw, want := range map[string]string{
		`"staff"`:                   "staff",
		`{"role":"admin"}`:          "admin",
		`{"data":{"role":"staff"}}`: "staff",
		`{}`:                        "",
	} {
		got, err := decodeRole([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := decodeRole([]byte(`[1]`))
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	ws := &Workspace{SessionID: "s1"}
	got, ok := FromContext(WithWorkspace(context.Background(), ws))
	require.True(t, ok)
	assert.Same(t, ws, got)
}

func TestRegistryConcurrentGetMountsOnce(t *testing.T) {
	r := NewRegistry(Deps{})
	sess := testSession("s1", "tok-1")

	const callers = 16
	got := make([]*Workspace, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Get(sess)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
	for _, ws := range got {
		assert.Same(t, got[0], ws)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWorkspaceLogsCarryOneComponent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"w1","day":"Funday","isDayOff":true}]`))
	}))
	defer srv.Close()

	out := &syncBuffer{}
	r := NewRegistry(Deps{
		Client: apiclient.New(apiclient.Config{BaseURL: srv.URL}),
		Logger: logging.NewWithWriter(out, "debug", "json"),
	})
	ws := r.Mount(testSession("s1", "tok-1"))
	_, err := ws.Weekly.Board(context.Background())
	require.NoError(t, err)

	var mounted, skipped string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		switch {
		case strings.Contains(line, "workspace mounted"):
			mounted = line
		case strings.Contains(line, "skipping weekly record"):
			skipped = line
		}
	}
	require.NotEmpty(t, mounted)
	require.NotEmpty(t, skipped)
	assert.Equal(t, 1, strings.Count(mounted, `"component"`))
	assert.Contains(t, mounted, `"component":"appstate"`)
	assert.Equal(t, 1, strings.Count(skipped, `"component"`))
	assert.Contains(t, skipped, `"component":"schedule.weekly"`)
}
