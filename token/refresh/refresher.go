package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Error is a non-2xx answer from the token endpoint. Body is the provider's raw error payload.
type Error struct {
	StatusCode int
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func (e *Error) Unwrap() error {
	return errors.ErrRefreshFailed
}

// Refresher exchanges a refresh token for a new token record using the refresh_token grant.
// A single attempt is made; retry policy belongs to the caller.
type Refresher struct {
	clientID     string
	clientSecret string
	tokenURL     string
	revokeURL    string
	httpClient   *http.Client
}

type Option func(*Refresher)

// WithHTTPClient sets the client used to call the identity provider
func WithHTTPClient(client *http.Client) Option {
	return func(r *Refresher) {
		r.httpClient = client
	}
}

// WithRevokeURL enables Revoke against an RFC 7009 revocation endpoint
func WithRevokeURL(revokeURL string) Option {
	return func(r *Refresher) {
		r.revokeURL = revokeURL
	}
}

func New(clientID, clientSecret, tokenURL string, options ...Option) *Refresher {
	r := &Refresher{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// KeycloakTokenURL is the OpenID Connect token endpoint of a Keycloak realm
func KeycloakTokenURL(realm string) string {
	return strings.TrimSuffix(realm, "/") + "/protocol/openid-connect/token"
}

// KeycloakRevokeURL is the token revocation endpoint of a Keycloak realm
func KeycloakRevokeURL(realm string) string {
	return strings.TrimSuffix(realm, "/") + "/protocol/openid-connect/revoke"
}

// NewKeycloakRefresher targets {realm}/protocol/openid-connect/token
func NewKeycloakRefresher(realm, clientID, clientSecret string, options ...Option) *Refresher {
	options = append([]Option{WithRevokeURL(KeycloakRevokeURL(realm))}, options...)
	return New(clientID, clientSecret, KeycloakTokenURL(realm), options...)
}

const (
	GoogleTokenURL  = "https://oauth2.googleapis.com/token"
	GoogleRevokeURL = "https://oauth2.googleapis.com/revoke"
)

func NewGoogleRefresher(clientID, clientSecret string, options ...Option) *Refresher {
	options = append([]Option{WithRevokeURL(GoogleRevokeURL)}, options...)
	return New(clientID, clientSecret, GoogleTokenURL, options...)
}

func (r *Refresher) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     r.clientID,
		ClientSecret: r.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  r.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams, // client_id/client_secret in the form body
		},
	}
}

func (r *Refresher) context(ctx context.Context) context.Context {
	if r.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}
	return ctx
}

// Refresh returns a new token record; current is never modified.
// The access token expiry is the request time plus the returned expires_in.
func (r *Refresher) Refresh(ctx context.Context, current sessions.Tokens) (sessions.Tokens, error) {
	if current.RefreshToken == "" {
		return sessions.Tokens{}, errors.ErrMissingRefreshToken
	}

	requestedAt := NowTimeFunc()
	tok, err := r.config().TokenSource(r.context(ctx), &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			log.Warn().Int("status", retrieveErr.Response.StatusCode).Msg("refresh token rejected by identity provider")
			return sessions.Tokens{}, &Error{StatusCode: retrieveErr.Response.StatusCode, Body: retrieveErr.Body}
		}
		return sessions.Tokens{}, errors.Wrapf(errors.ErrRefreshFailed, "[Refresher.Refresh] %v", err)
	}

	refreshed := sessions.Tokens{
		AccessToken:  tok.AccessToken,
		IDToken:      current.IDToken,
		RefreshToken: tok.RefreshToken, // x/oauth2 keeps the old one when the provider doesn't rotate
		ExpiresAt:    TokenExpiry(tok, requestedAt),
	}
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		refreshed.IDToken = idToken
	}
	return refreshed, nil
}

// TokenExpiry is requestedAt + expires_in when the provider sent one, tok.Expiry otherwise.
func TokenExpiry(tok *oauth2.Token, requestedAt time.Time) time.Time {
	if expiresIn, ok := expiresInSeconds(tok.Extra("expires_in")); ok && expiresIn > 0 {
		return requestedAt.Add(time.Duration(expiresIn) * time.Second)
	}
	return tok.Expiry
}

// Revoke invalidates a refresh token at the provider. Errors are returned but callers
// signing out usually only log them.
func (r *Refresher) Revoke(ctx context.Context, refreshToken string) error {
	if r.revokeURL == "" || refreshToken == "" {
		return nil
	}

	form := url.Values{}
	form.Set("token", refreshToken)
	form.Set("token_type_hint", "refresh_token")
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("[Refresher.Revoke] new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := r.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("[Refresher.Revoke] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{StatusCode: resp.StatusCode, Body: body}
	}
	return nil
}

func expiresInSeconds(v interface{}) (int64, bool) {
	switch e := v.(type) {
	case float64:
		return int64(e), true
	case json.Number:
		n, err := e.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(e, 10, 64)
		return n, err == nil
	}
	return 0, false
}
