package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persistence decides how long a session outlives the browser.
type Persistence string

const (
	// PersistDurable survives browser restarts ("remember me").
	PersistDurable Persistence = "durable"
	// PersistSession ends with the browser session.
	PersistSession Persistence = "session"
)

// Session is a signed-in admin.
type Session struct {
	ID          string      `json:"id"`
	Identity    Identity    `json:"identity"`
	Tokens      Tokens      `json:"tokens"`
	Persistence Persistence `json:"persistence"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// SessionStore keeps sessions in Redis with a TTL matching their persistence.
type SessionStore struct {
	redis *redis.Client
}

func NewSessionStore(redisClient *redis.Client) *SessionStore {
	return &SessionStore{redis: redisClient}
}

func (s *SessionStore) key(id string) string {
	return fmt.Sprintf("pcms:session:%s", id)
}

func (s *SessionStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("identity: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("identity: save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity: get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("identity: unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("identity: delete session: %w", err)
	}
	return nil
}
