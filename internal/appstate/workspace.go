// Package appstate holds the per-session console state: query cache,
// editors, booking calendar and the server-reported role.
package appstate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/bookings"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
	"github.com/faysalsarker-dev/piercing-cms/internal/schedule"
)

const rolePath = "/users/role"

// Workspace is everything one signed-in admin sees. It lives from sign-in
// until sign-out or idle eviction.
type Workspace struct {
	SessionID string
	Identity  identity.Identity

	Client    *apiclient.Client
	Cache     *querycache.Cache
	Weekly    *schedule.WeeklyEditor
	Overrides *schedule.OverrideEditor
	Bookings  *bookings.Calendar
	Resources *resources.Service

	token     string
	mountedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func newWorkspace(sess *identity.Session, deps Deps, now time.Time) *Workspace {
	token := bearerToken(sess.Tokens)
	client := deps.Client.WithCredentials(token)
	cache := querycache.New(deps.CacheTTL, deps.Metrics)
	logger := deps.Logger.With("session", shortID(sess.ID))

	scheduleStore := schedule.NewAPIStore(client)
	return &Workspace{
		SessionID: sess.ID,
		Identity:  sess.Identity,
		Client:    client,
		Cache:     cache,
		Weekly:    schedule.NewWeeklyEditor(scheduleStore, cache, deps.DayOffMessage, logger),
		Overrides: schedule.NewOverrideEditor(scheduleStore, cache, deps.DayOffMessage, logger),
		Bookings:  bookings.NewCalendar(bookings.NewAPIStore(client), cache, logger),
		Resources: resources.NewService(client, cache, logger),
		token:     token,
		mountedAt: now,
		lastSeen:  now,
	}
}

// Role returns the role the business API reports for the signed-in email.
// The answer is cached with the rest of the workspace's queries.
func (w *Workspace) Role(ctx context.Context) (string, error) {
	email := strings.ToLower(w.Identity.Email)
	key := querycache.NewKey("users", "role", "email="+email)
	role, err := querycache.Fetch(ctx, w.Cache, key, func(ctx context.Context) (string, error) {
		var raw json.RawMessage
		if err := w.Client.Get(ctx, rolePath, url.Values{"email": {email}}, &raw); err != nil {
			return "", err
		}
		return decodeRole(raw)
	})
	if err != nil {
		return "", fmt.Errorf("appstate: role: %w", err)
	}
	return role, nil
}

// HasRole reports whether the server-reported role matches want.
func (w *Workspace) HasRole(ctx context.Context, want string) (bool, error) {
	role, err := w.Role(ctx)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(role, want), nil
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

// decodeRole accepts {"role":..}, {"data":{"role":..}} or a bare string.
func decodeRole(raw json.RawMessage) (string, error) {
	var bare string
	if json.Unmarshal(raw, &bare) == nil {
		return bare, nil
	}
	var env struct {
		Role string `json:"role"`
		Data *struct {
			Role string `json:"role"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode role: %w", err)
	}
	if env.Role != "" {
		return env.Role, nil
	}
	if env.Data != nil {
		return env.Data.Role, nil
	}
	return "", nil
}

// bearerToken picks the credential the business API accepts. ID tokens carry
// the email claim the API resolves roles from.
func bearerToken(t identity.Tokens) string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
