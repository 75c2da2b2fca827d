package sessions

import (
	"time"
)

// Status mirrors the states a UI sees while a session is being resolved.
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
)

// ProviderKind tags which credential strategy produced the session.
type ProviderKind string

const (
	ProviderAnonymous   ProviderKind = "anonymous"
	ProviderOAuth       ProviderKind = "oauth"
	ProviderCredentials ProviderKind = "credentials"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Tokens is the identity provider token record attached to a session.
type Tokens struct {
	AccessToken  string    `json:"access_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"` // absolute access token expiry
}

// Expired reports whether the access token expires within leeway of now.
// A zero ExpiresAt means the provider gave no expiry and the token is treated as valid.
func (t Tokens) Expired(now time.Time, leeway time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(t.ExpiresAt)
}

// Session is the server side record of a signed-in (or guest) browser.
type Session struct {
	ID           string       `json:"id"`
	Status       Status       `json:"status"`
	User         User         `json:"user"`
	Tokens       Tokens       `json:"tokens"`
	Provider     ProviderKind `json:"provider"`
	ProviderName string       `json:"provider_name"` // e.g. "keycloak", "google"
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"` // hard session lifetime, independent of the access token
}

// Authenticated is true for a non-anonymous session holding an access token.
func (s *Session) Authenticated() bool {
	if s == nil {
		return false
	}
	return s.Status == StatusAuthenticated && s.Provider != ProviderAnonymous && s.Tokens.AccessToken != ""
}

// Expired reports whether the session outlived its maximum age.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// CanRefresh is true when the access token can be renewed without the user.
func (s *Session) CanRefresh() bool {
	return s != nil && s.Tokens.RefreshToken != ""
}

// WithTokens returns a copy of the session with its token record replaced.
func (s *Session) WithTokens(tokens Tokens) Session {
	updated := *s
	updated.Tokens = tokens
	return updated
}

// BearerToken returns the access token for authenticated sessions, "" otherwise.
func (s *Session) BearerToken() string {
	if !s.Authenticated() {
		return ""
	}
	return s.Tokens.AccessToken
}
