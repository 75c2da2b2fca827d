// Package providers holds the credential strategies a session can be created with.
package providers

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/sessions"
)

// Credentials is everything a strategy might need to authorize a sign-in.
// Each provider reads only the fields relevant to it.
type Credentials struct {
	// OAuth authorization code flow
	Code         string
	CodeVerifier string
	Nonce        string

	// Guest correlation id, attached to anonymous identities
	AnonymousID string

	// Username/password, accepted but never honoured
	Username string
	Password string
}

// Identity is the result of a successful Authorize.
type Identity struct {
	User         sessions.User
	Tokens       sessions.Tokens
	Provider     sessions.ProviderKind
	ProviderName string
}

// Provider is a credential strategy. Authorize returns the identity or an error.
type Provider interface {
	Name() string
	Kind() sessions.ProviderKind
	Authorize(ctx context.Context, creds Credentials) (*Identity, error)
}

// Redirector is implemented by providers that sign in through a browser redirect.
type Redirector interface {
	AuthCodeURL(ctx context.Context, state, nonce, verifier string) (string, error)
}

// Set is the registry of configured providers, keyed by name.
type Set struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewSet(providers ...Provider) *Set {
	s := &Set{providers: make(map[string]Provider)}
	for _, p := range providers {
		s.Register(p)
	}
	return s
}

// Register adds p, replacing any provider of the same name.
func (s *Set) Register(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name()] = p
}

func (s *Set) Get(name string) (Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownProvider, "[Set.Get] %q", name)
	}
	return p, nil
}

// Names lists the registered providers in alphabetical order
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
