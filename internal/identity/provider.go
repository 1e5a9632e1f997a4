// Package identity signs admins in and out and keeps their sessions.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrUserExists         = errors.New("identity: account already exists")
	ErrWeakPassword       = errors.New("identity: password does not meet policy")
	ErrNotConfirmed       = errors.New("identity: account not confirmed")
	// ErrChallenge is returned when the pool asks for an extra step the
	// console does not support, such as a forced password change.
	ErrChallenge       = errors.New("identity: additional challenge required")
	ErrSessionNotFound = errors.New("identity: session not found")
	ErrInvalidToken    = errors.New("identity: invalid token")
)

// Tokens are the credentials issued at sign-in.
type Tokens struct {
	IDToken      string        `json:"idToken"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	ExpiresIn    time.Duration `json:"expiresIn"`
}

// Identity is who a token belongs to.
type Identity struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Groups  []string `json:"groups,omitempty"`
}

// Provider is the identity backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Tokens, Identity, error)
	// SignUp registers an account. confirmed is false when the backend
	// still expects email verification.
	SignUp(ctx context.Context, email, password string) (confirmed bool, err error)
	SignOut(ctx context.Context, tokens Tokens) error
}

// Verifier validates bearer tokens presented directly by API callers.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
