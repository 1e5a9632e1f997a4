package appstate

import (
	"context"
	"sync"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// Deps are shared by every workspace.
type Deps struct {
	Client        *apiclient.Client
	CacheTTL      time.Duration
	IdleTTL       time.Duration
	DayOffMessage string
	Metrics       *metrics.ConsoleMetrics
	Logger        *logging.Logger
}

// Registry maps session ids to mounted workspaces.
type Registry struct {
	deps   Deps
	logger *logging.Logger
	now    func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Client == nil {
		deps.Client = apiclient.New(apiclient.Config{Logger: deps.Logger, Metrics: deps.Metrics})
	}
	return &Registry{
		deps:       deps,
		logger:     deps.Logger.Component("appstate"),
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Mount creates a fresh workspace for sess, replacing any previous one.
func (r *Registry) Mount(sess *identity.Session) *Workspace {
	r.mu.Lock()
	ws, n := r.mountLocked(sess, r.now())
	r.mu.Unlock()
	r.mounted(sess, n)
	return ws
}

// Get returns the workspace for sess, mounting one when none exists (for
// example after a restart) or when the session's credentials changed.
// Concurrent first requests for one session share a single workspace.
func (r *Registry) Get(sess *identity.Session) *Workspace {
	now := r.now()
	r.mu.Lock()
	if ws, ok := r.workspaces[sess.ID]; ok && ws.token == bearerToken(sess.Tokens) {
		r.mu.Unlock()
		ws.touch(now)
		return ws
	}
	ws, n := r.mountLocked(sess, now)
	r.mu.Unlock()
	r.mounted(sess, n)
	return ws
}

// mountLocked must be called with r.mu held.
func (r *Registry) mountLocked(sess *identity.Session, now time.Time) (*Workspace, int) {
	ws := newWorkspace(sess, r.deps, now)
	r.workspaces[sess.ID] = ws
	return ws, len(r.workspaces)
}

func (r *Registry) mounted(sess *identity.Session, n int) {
	r.deps.Metrics.SetWorkspaces(n)
	r.logger.Info("workspace mounted", "session", shortID(sess.ID), "email", sess.Identity.Email)
}

// Teardown drops the workspace of a signed-out session.
func (r *Registry) Teardown(sessionID string) bool {
	r.mu.Lock()
	_, ok := r.workspaces[sessionID]
	delete(r.workspaces, sessionID)
	n := len(r.workspaces)
	r.mu.Unlock()
	if ok {
		r.deps.Metrics.SetWorkspaces(n)
		r.logger.Info("workspace torn down", "session", shortID(sessionID))
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep evicts workspaces idle for longer than the configured idle TTL.
func (r *Registry) Sweep() int {
	if r.deps.IdleTTL <= 0 {
		return 0
	}
	now := r.now()
	r.mu.Lock()
	evicted := 0
	for id, ws := range r.workspaces {
		if ws.idleSince(now) > r.deps.IdleTTL {
			delete(r.workspaces, id)
			evicted++
		}
	}
	n := len(r.workspaces)
	r.mu.Unlock()
	if evicted > 0 {
		r.deps.Metrics.SetWorkspaces(n)
		r.logger.Info("idle workspaces evicted", "count", evicted, "remaining", n)
	}
	return evicted
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
