// Package preferences keeps per-user console settings in Redis.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyFormat = "pcms:prefs:%s"

// Preferences are the settings the console shell restores on every visit.
type Preferences struct {
	DarkMode bool `json:"darkMode"`
}

// Store reads and writes preferences keyed by account subject.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns stored preferences, or defaults when nothing was saved yet.
func (s *Store) Get(ctx context.Context, subject string) (Preferences, error) {
	var prefs Preferences
	if strings.TrimSpace(subject) == "" {
		return prefs, errors.New("preferences: subject required")
	}
	raw, err := s.client.Get(ctx, fmt.Sprintf(keyFormat, subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("preferences: get: %w", err)
	}
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("preferences: decode: %w", err)
	}
	return prefs, nil
}

// Put persists preferences without expiry.
func (s *Store) Put(ctx context.Context, subject string, prefs Preferences) error {
	if strings.TrimSpace(subject) == "" {
		return errors.New("preferences: subject required")
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("preferences: encode: %w", err)
	}
	if err := s.client.Set(ctx, fmt.Sprintf(keyFormat, subject), raw, 0).Err(); err != nil {
		return fmt.Errorf("preferences: put: %w", err)
	}
	return nil
}
