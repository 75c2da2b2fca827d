package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/did-storefront/actions"
	"github.com/jrsteele09/did-storefront/identity"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/internal/metrics"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the resolved *sessions.Session
	ContextKeySession ContextKey = "session"
	// ContextKeyAnonymousID stores the browser's anonymous id
	ContextKeyAnonymousID ContextKey = "anonymous_id"
	// ContextKeyAssigner stores the request's *identity.Assigner
	ContextKeyAssigner ContextKey = "assigner"
)

// AnonymousIDMiddleware makes sure the browser carries an anonymous id before any action runs.
func (s *Server) AnonymousIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assigner := identity.NewAssigner(identity.NewCookieStore(w, r, s.config.GetAnonymousIDMaxAge()))
		id, err := assigner.Ensure()
		if err != nil {
			log.Err(err).Msg("failed to assign anonymous id")
		}

		ctx := context.WithValue(r.Context(), ContextKeyAnonymousID, id)
		ctx = context.WithValue(ctx, ContextKeyAssigner, assigner)
		next(w, r.WithContext(ctx))
	}
}

// SessionMiddleware resolves the session cookie, refreshing the access token when needed.
// Requests without a usable session continue unauthenticated; the actions layer gates them.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			next(w, r)
			return
		}

		sessionID, err := s.cookies.Decode(cookie.Value)
		if err != nil {
			log.Debug().Err(err).Msg("discarding invalid session cookie")
			s.clearSessionCookie(w, r)
			next(w, r)
			return
		}

		session, err := s.sessions.Resolve(r.Context(), sessionID)
		if err != nil {
			if sessionGone(err) {
				s.clearSessionCookie(w, r)
			} else {
				log.Err(err).Msg("session lookup failed")
			}
			next(w, r)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, session)))
	}
}

// RequireSessionMiddleware rejects mutations without a signed-in session before the body is read.
func (s *Server) RequireSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !principal(r).Authenticated() {
			metrics.ObserveGateRejection(r.Pattern)
			writeMutation(w, nil, actions.ErrNotAuthenticated())
			return
		}
		next(w, r)
	}
}

// RequireIdentityMiddleware is RequireSessionMiddleware for cart routes, where an anonymous id is enough.
func (s *Server) RequireIdentityMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !principal(r).Identified() {
			metrics.ObserveGateRejection(r.Pattern)
			writeMutation(w, nil, actions.ErrNotAuthenticated())
			return
		}
		next(w, r)
	}
}

// sessionGone is true for errors after which the cookie can never resolve again
func sessionGone(err error) bool {
	return errors.Is(err, errors.ErrSessionNotFound) ||
		errors.Is(err, errors.ErrSessionExpired) ||
		errors.Is(err, errors.ErrRefreshFailed) ||
		errors.Is(err, errors.ErrMissingRefreshToken)
}

func sessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Session)
	return session
}

func anonymousIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyAnonymousID).(string)
	if !ok || id == "" {
		return identity.NoID
	}
	return id
}

func assignerFromContext(ctx context.Context) *identity.Assigner {
	assigner, _ := ctx.Value(ContextKeyAssigner).(*identity.Assigner)
	return assigner
}

func principal(r *http.Request) actions.Principal {
	return actions.Principal{
		Session:     sessionFromContext(r.Context()),
		AnonymousID: anonymousIDFromContext(r.Context()),
	}
}
