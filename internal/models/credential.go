package models

import (
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

// Service names one side of a migration.
type Service string

const (
	ServiceSpotify Service = "spotify"
	ServiceYouTube Service = "youtube"
)

// Credential is a bearer token scoped to one service and one session.
//
// The migration core only reads it and, when a run finishes, invalidates it.
// It is safe for concurrent use.
type Credential struct {
	service     Service
	token       string
	expiry      time.Time
	invalidated atomic.Bool
}

// NewCredential builds a credential. A zero expiry means the token does not expire.
func NewCredential(service Service, token string, expiry time.Time) *Credential {
	return &Credential{service: service, token: token, expiry: expiry}
}

// CredentialFromToken wraps an OAuth2 token.
func CredentialFromToken(service Service, tok *oauth2.Token) *Credential {
	if tok == nil {
		return NewCredential(service, "", time.Time{})
	}
	return NewCredential(service, tok.AccessToken, tok.Expiry)
}

func (c *Credential) Service() Service { return c.service }

// Token returns the bearer token, or "" once the credential has been invalidated.
func (c *Credential) Token() string {
	if c == nil || c.invalidated.Load() {
		return ""
	}
	return c.token
}

// Header returns the Authorization header value.
func (c *Credential) Header() string {
	return "Bearer " + c.Token()
}

// Valid reports whether the credential is non-empty, unexpired at now, and not invalidated.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.token == "" || c.invalidated.Load() {
		return false
	}
	return c.expiry.IsZero() || now.Before(c.expiry)
}

// Invalidate marks the credential unusable. It is idempotent.
func (c *Credential) Invalidate() {
	if c != nil {
		c.invalidated.Store(true)
	}
}

func (c *Credential) Invalidated() bool {
	return c != nil && c.invalidated.Load()
}

// TokenSource returns a static source that yields the current token.
func (c *Credential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token(), TokenType: "Bearer", Expiry: c.expiry})
}
