// Package auth manages the session lifecycle: sign-in through a provider,
// resolution with automatic access token refresh, and sign-out.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/internal/metrics"
	"github.com/jrsteele09/did-storefront/providers"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxSessionAge = 30 * 24 * time.Hour
	defaultTokenLeeway   = 30 * time.Second
)

// Refresher renews and revokes the tokens issued by one identity provider.
type Refresher interface {
	Refresh(ctx context.Context, current sessions.Tokens) (sessions.Tokens, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// SessionService is the only writer of sessions. Concurrent refreshes of the same session
// are not coordinated: each hits the identity provider and the last write wins.
type SessionService struct {
	providers  *providers.Set
	repo       sessions.Repo
	refreshers map[string]Refresher // keyed by provider name
	maxAge     time.Duration
	leeway     time.Duration
	nowTime    func() time.Time
	newID      func() string
}

type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

// WithRefresher registers the refresher for sessions issued by providerName
func WithRefresher(providerName string, r Refresher) SessionServiceOption {
	return func(s *SessionService) {
		s.refreshers[providerName] = r
	}
}

func WithMaxSessionAge(maxAge time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.maxAge = maxAge
	}
}

// WithTokenLeeway refreshes access tokens this long before they expire
func WithTokenLeeway(leeway time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.leeway = leeway
	}
}

// WithSessionIDGenerator replaces uuid.NewString (primarily for testing)
func WithSessionIDGenerator(gen func() string) SessionServiceOption {
	return func(s *SessionService) {
		s.newID = gen
	}
}

func NewSessionService(set *providers.Set, repo sessions.Repo, options ...SessionServiceOption) *SessionService {
	s := &SessionService{
		providers:  set,
		repo:       repo,
		refreshers: make(map[string]Refresher),
		maxAge:     defaultMaxSessionAge,
		leeway:     defaultTokenLeeway,
		nowTime:    time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *SessionService) Providers() *providers.Set {
	return s.providers
}

// SignIn authorizes creds with the named provider and stores a new session.
func (s *SessionService) SignIn(ctx context.Context, providerName string, creds providers.Credentials) (*sessions.Session, error) {
	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	identity, err := provider.Authorize(ctx, creds)
	metrics.ObserveSignIn(providerName, err)
	if err != nil {
		return nil, errors.Wrapf(err, "[SessionService.SignIn] %s", providerName)
	}

	status := sessions.StatusAuthenticated
	if identity.Provider == sessions.ProviderAnonymous {
		status = sessions.StatusUnauthenticated
	}

	now := s.nowTime()
	session := sessions.Session{
		ID:           s.newID(),
		Status:       status,
		User:         identity.User,
		Tokens:       identity.Tokens,
		Provider:     identity.Provider,
		ProviderName: identity.ProviderName,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.maxAge),
	}
	if err := s.repo.Upsert(ctx, session); err != nil {
		return nil, errors.Wrapf(err, "[SessionService.SignIn] store session")
	}

	log.Info().Str("provider", providerName).Str("user", session.User.ID).Msg("signed in")
	return &session, nil
}

// Resolve loads a session, dropping it when it outlived its max age and refreshing
// its access token when that is about to expire.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (*sessions.Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.nowTime()
	if session.Expired(now) {
		s.drop(ctx, session.ID)
		return nil, errors.ErrSessionExpired
	}

	if session.Authenticated() && session.Tokens.Expired(now, s.leeway) {
		if !session.CanRefresh() {
			s.drop(ctx, session.ID)
			return nil, errors.ErrSessionExpired
		}
		return s.Refresh(ctx, session)
	}
	return session, nil
}

// Refresh renews the session's tokens. On failure the session is deleted so the
// user has to sign in again.
func (s *SessionService) Refresh(ctx context.Context, session *sessions.Session) (*sessions.Session, error) {
	refresher, ok := s.refreshers[session.ProviderName]
	if !ok {
		s.drop(ctx, session.ID)
		return nil, errors.Wrapf(errors.ErrRefreshFailed, "[SessionService.Refresh] no refresher for %q", session.ProviderName)
	}

	tokens, err := refresher.Refresh(ctx, session.Tokens)
	metrics.ObserveTokenRefresh(session.ProviderName, err)
	if err != nil {
		log.Err(err).Str("session", session.ID).Str("provider", session.ProviderName).Msg("token refresh failed, session dropped")
		s.drop(ctx, session.ID)
		return nil, errors.Wrapf(err, "[SessionService.Refresh]")
	}

	updated := session.WithTokens(tokens)
	if err := s.repo.Upsert(ctx, updated); err != nil {
		return nil, errors.Wrapf(err, "[SessionService.Refresh] store session")
	}
	return &updated, nil
}

// RefreshByID is the explicit refresh trigger for an already resolved session id.
func (s *SessionService) RefreshByID(ctx context.Context, sessionID string) (*sessions.Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.CanRefresh() {
		return nil, errors.ErrMissingRefreshToken
	}
	return s.Refresh(ctx, session)
}

// SignOut deletes the session and revokes its refresh token at the provider.
// Revocation failures are logged only.
func (s *SessionService) SignOut(ctx context.Context, sessionID string) error {
	session, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, errors.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "[SessionService.SignOut]")
	}

	if refresher, ok := s.refreshers[session.ProviderName]; ok && session.CanRefresh() {
		if err := refresher.Revoke(ctx, session.Tokens.RefreshToken); err != nil {
			log.Err(err).Str("provider", session.ProviderName).Msg("refresh token revocation failed")
		}
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return errors.Wrapf(err, "[SessionService.SignOut] delete")
	}
	return nil
}

// PurgeExpired removes sessions past their max age
func (s *SessionService) PurgeExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx, s.nowTime())
}

func (s *SessionService) drop(ctx context.Context, sessionID string) {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		log.Err(err).Str("session", sessionID).Msg("failed to delete session")
	}
}
