package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// StaticProvider checks credentials against bcrypt hashes held in memory and
// mints HS256 tokens. It is meant for local development against a business
// API that accepts the same secret.
type StaticProvider struct {
	mu       sync.RWMutex
	users    map[string]string
	subjects map[string]string
	verifier *HMACVerifier
	tokenTTL time.Duration
	now      func() time.Time
}

// NewStaticProvider takes email to bcrypt-hash pairs.
func NewStaticProvider(users map[string]string, verifier *HMACVerifier, tokenTTL time.Duration) *StaticProvider {
	p := &StaticProvider{
		users:    make(map[string]string, len(users)),
		subjects: make(map[string]string, len(users)),
		verifier: verifier,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
	for email, hash := range users {
		email = strings.ToLower(strings.TrimSpace(email))
		p.users[email] = hash
		p.subjects[email] = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
	}
	return p
}

func (p *StaticProvider) SignIn(_ context.Context, email, password string) (Tokens, Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p.mu.RLock()
	hash, ok := p.users[email]
	sub := p.subjects[email]
	p.mu.RUnlock()
	if !ok {
		return Tokens{}, Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Tokens{}, Identity{}, ErrInvalidCredentials
	}
	id := Identity{Subject: sub, Email: email}
	token, err := p.verifier.sign(id, p.tokenTTL, p.now())
	if err != nil {
		return Tokens{}, Identity{}, err
	}
	return Tokens{IDToken: token, AccessToken: token, ExpiresIn: p.tokenTTL}, id, nil
}

func (p *StaticProvider) SignUp(_ context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLen {
		return false, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.users[email]; exists {
		return false, ErrUserExists
	}
	p.users[email] = string(hash)
	p.subjects[email] = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
	return true, nil
}

// SignOut is a no-op; static tokens simply expire.
func (p *StaticProvider) SignOut(context.Context, Tokens) error { return nil }
