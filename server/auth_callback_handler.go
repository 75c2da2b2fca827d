package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/did-storefront/providers"
	"github.com/jrsteele09/did-storefront/server/authflowrepo"
	"github.com/rs/zerolog/log"
)

type authFlowState = authflowrepo.AuthFlowState

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and form_post responses
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// The state is single use whatever happens next
		clearAuthStateCookie(w, r)

		if errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
			return
		}
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		cookie, err := r.Cookie(authStateCookieName)
		if err != nil || cookie.Value != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		flow, err := s.authFlows.Get(state)
		if err != nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		if err := s.authFlows.Delete(state); err != nil {
			log.Err(err).Msg("failed to delete auth flow")
		}

		provider := r.PathValue("provider")
		if flow.Provider != provider || flow.Expired(s.nowTime(), authFlowTTL) {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		session, err := s.sessions.SignIn(r.Context(), provider, providers.Credentials{
			Code:         code,
			CodeVerifier: flow.CodeVerifier,
			Nonce:        flow.Nonce,
			AnonymousID:  flow.AnonymousID,
		})
		if err != nil {
			log.Err(err).Str("provider", provider).Msg("oauth sign in failed")
			http.Error(w, "Sign in failed", http.StatusUnauthorized)
			return
		}

		if err := s.setSessionCookie(w, r, session.ID, session.ExpiresAt); err != nil {
			log.Err(err).Msg("failed to set session cookie")
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, safeReturnURL(flow.ReturnURL), http.StatusSeeOther)
	}
}
