package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/internal/utils"
	"github.com/jrsteele09/did-storefront/providers"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type providerView struct {
	Name     string                `json:"name"`
	Kind     sessions.ProviderKind `json:"type"`
	SignIn   string                `json:"signinUrl"`
	Callback string                `json:"callbackUrl,omitempty"`
}

// sessionView is what the UI sees of a session; tokens never leave the server
type sessionView struct {
	Status             sessions.Status `json:"status"`
	User               *sessions.User  `json:"user,omitempty"`
	Provider           string          `json:"provider,omitempty"`
	Expires            *time.Time      `json:"expires,omitempty"`
	AccessTokenExpires *time.Time      `json:"accessTokenExpires,omitempty"`
	AnonymousID        string          `json:"anonymousId"`
}

func newSessionView(session *sessions.Session, anonymousID string) sessionView {
	view := sessionView{Status: sessions.StatusUnauthenticated, AnonymousID: anonymousID}
	if session == nil {
		return view
	}
	view.Status = session.Status
	view.Provider = session.ProviderName
	view.Expires = utils.Ptr(session.ExpiresAt)
	if session.User.ID != "" {
		view.User = utils.Ptr(session.User)
	}
	if !session.Tokens.ExpiresAt.IsZero() {
		view.AccessTokenExpires = utils.Ptr(session.Tokens.ExpiresAt)
	}
	return view
}

func (s *Server) ProvidersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set := s.sessions.Providers()
		views := make(map[string]providerView)
		for _, name := range set.Names() {
			p, err := set.Get(name)
			if err != nil {
				continue
			}
			view := providerView{
				Name:   name,
				Kind:   p.Kind(),
				SignIn: s.config.GetBaseURL() + "/auth/signin/" + name,
			}
			if _, ok := p.(providers.Redirector); ok {
				view.Callback = providers.CallbackURL(s.config.GetBaseURL(), name)
			}
			views[name] = view
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// SignInRedirectHandler starts the authorization code flow for redirect providers.
func (s *Server) SignInRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("provider")
		p, err := s.sessions.Providers().Get(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown_provider")
			return
		}
		redirector, ok := p.(providers.Redirector)
		if !ok {
			writeError(w, http.StatusMethodNotAllowed, "provider_requires_post")
			return
		}

		state := generateRandomString(32)
		flow := s.newAuthFlow(r, name)
		if err := s.authFlows.Upsert(state, flow); err != nil {
			log.Err(err).Msg("failed to store auth flow")
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}

		authURL, err := redirector.AuthCodeURL(r.Context(), state, flow.Nonce, flow.CodeVerifier)
		if err != nil {
			_ = s.authFlows.Delete(state)
			log.Err(err).Str("provider", name).Msg("failed to build authorization url")
			writeError(w, http.StatusBadGateway, "provider_unavailable")
			return
		}

		setAuthStateCookie(w, r, state)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

func (s *Server) newAuthFlow(r *http.Request, provider string) *authFlowState {
	return &authFlowState{
		Provider:     provider,
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        generateRandomString(16),
		AnonymousID:  anonymousIDFromContext(r.Context()),
		ReturnURL:    safeReturnURL(r.URL.Query().Get("callbackUrl")),
		CreatedAt:    s.nowTime(),
	}
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInHandler signs in with providers that take credentials directly (anonymous, credentials).
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("provider")
		p, err := s.sessions.Providers().Get(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown_provider")
			return
		}
		if _, ok := p.(providers.Redirector); ok {
			writeError(w, http.StatusMethodNotAllowed, "provider_requires_redirect")
			return
		}

		var req signInRequest
		if p.Kind() == sessions.ProviderCredentials && !decodeJSON(w, r, &req) {
			return
		}

		anonymousID := anonymousIDFromContext(r.Context())
		session, err := s.sessions.SignIn(r.Context(), name, providers.Credentials{
			AnonymousID: anonymousID,
			Username:    req.Username,
			Password:    req.Password,
		})
		if err != nil {
			if errors.Is(err, errors.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials")
				return
			}
			log.Err(err).Str("provider", name).Msg("sign in failed")
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}

		if err := s.setSessionCookie(w, r, session.ID, session.ExpiresAt); err != nil {
			log.Err(err).Msg("failed to set session cookie")
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(session, anonymousID))
	}
}

// SignOutHandler rotates the anonymous id first so the next visitor on a shared device
// starts with an empty cart, then ends the session.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anonymousID := anonymousIDFromContext(r.Context())
		if assigner := assignerFromContext(r.Context()); assigner != nil {
			id, err := assigner.Reset()
			if err != nil {
				log.Err(err).Msg("failed to reset anonymous id")
			} else {
				anonymousID = id
			}
		}

		if session := sessionFromContext(r.Context()); session != nil {
			if err := s.sessions.SignOut(r.Context(), session.ID); err != nil {
				log.Err(err).Msg("sign out failed")
			}
		}
		s.clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, newSessionView(nil, anonymousID))
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newSessionView(sessionFromContext(r.Context()), anonymousIDFromContext(r.Context())))
	}
}

// RefreshHandler forces a token refresh. A failed refresh ends the session.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if !session.Authenticated() {
			writeError(w, http.StatusUnauthorized, "not_authenticated")
			return
		}

		refreshed, err := s.sessions.RefreshByID(r.Context(), session.ID)
		if err != nil {
			if sessionGone(err) {
				s.clearSessionCookie(w, r)
				writeError(w, http.StatusUnauthorized, "refresh_failed")
				return
			}
			log.Err(err).Msg("refresh failed")
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(refreshed, anonymousIDFromContext(r.Context())))
	}
}
