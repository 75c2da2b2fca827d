package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/oauthmodel"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/jrsteele09/did-storefront/token/refresh"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	KeycloakName = "keycloak"
	GoogleName   = "google"

	GoogleIssuer = "https://accounts.google.com"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// OAuth is an OpenID Connect authorization code provider. Endpoints are discovered
// from the issuer on first use unless supplied with WithEndpoint/WithVerifier.
type OAuth struct {
	name       string
	issuer     string
	config     oauth2.Config
	authOpts   []oauth2.AuthCodeOption
	httpClient *http.Client

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
	resolved bool
}

var (
	_ Provider   = (*OAuth)(nil)
	_ Redirector = (*OAuth)(nil)
)

type OAuthOption func(*OAuth)

// WithEndpoint skips discovery of the authorization and token endpoints
func WithEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(o *OAuth) {
		o.config.Endpoint = endpoint
	}
}

// WithVerifier supplies the ID token verifier instead of using the issuer's JWKS
func WithVerifier(verifier *oidc.IDTokenVerifier) OAuthOption {
	return func(o *OAuth) {
		o.verifier = verifier
	}
}

func WithOAuthHTTPClient(client *http.Client) OAuthOption {
	return func(o *OAuth) {
		o.httpClient = client
	}
}

// WithAuthOptions adds parameters to every authorization redirect
func WithAuthOptions(opts ...oauth2.AuthCodeOption) OAuthOption {
	return func(o *OAuth) {
		o.authOpts = append(o.authOpts, opts...)
	}
}

func WithScopes(scopes ...string) OAuthOption {
	return func(o *OAuth) {
		o.config.Scopes = scopes
	}
}

// NewOAuth creates a provider named name; callbacks arrive at {baseURL}/auth/callback/{name}.
func NewOAuth(name, issuer, clientID, clientSecret, baseURL string, options ...OAuthOption) *OAuth {
	o := &OAuth{
		name:   name,
		issuer: strings.TrimSuffix(issuer, "/"),
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  CallbackURL(baseURL, name),
			Scopes: []string{
				oauthmodel.ScopeOpenID,
				oauthmodel.ScopeProfile,
				oauthmodel.ScopeEmail,
				oauthmodel.ScopeOfflineAccess,
			},
		},
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// NewKeycloak configures a provider against a Keycloak realm; the realm URL is the issuer.
func NewKeycloak(realm, clientID, clientSecret, baseURL string, options ...OAuthOption) *OAuth {
	return NewOAuth(KeycloakName, realm, clientID, clientSecret, baseURL, options...)
}

// NewGoogle configures Google sign-in. Google issues refresh tokens for access_type=offline
// rather than the offline_access scope.
func NewGoogle(clientID, clientSecret, baseURL string, options ...OAuthOption) *OAuth {
	options = append([]OAuthOption{
		WithScopes(oauthmodel.ScopeOpenID, oauthmodel.ScopeProfile, oauthmodel.ScopeEmail),
		WithAuthOptions(oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")),
	}, options...)
	return NewOAuth(GoogleName, GoogleIssuer, clientID, clientSecret, baseURL, options...)
}

func CallbackURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/auth/callback/" + name
}

func (o *OAuth) Name() string                { return o.name }
func (o *OAuth) Kind() sessions.ProviderKind { return sessions.ProviderOAuth }

// Issuer is the OpenID Connect issuer URL
func (o *OAuth) Issuer() string { return o.issuer }

// TokenURL is the token endpoint, resolving discovery if needed
func (o *OAuth) TokenURL(ctx context.Context) (string, error) {
	if err := o.resolve(ctx); err != nil {
		return "", err
	}
	return o.config.Endpoint.TokenURL, nil
}

func (o *OAuth) context(ctx context.Context) context.Context {
	if o.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	return ctx
}

func (o *OAuth) resolve(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved {
		return nil
	}

	if o.config.Endpoint.TokenURL == "" || o.verifier == nil {
		provider, err := oidc.NewProvider(oidc.ClientContext(ctx, o.httpClientOrDefault()), o.issuer)
		if err != nil {
			return fmt.Errorf("[OAuth.resolve] discovery for %s: %w", o.issuer, err)
		}
		if o.config.Endpoint.TokenURL == "" {
			o.config.Endpoint = provider.Endpoint()
		}
		if o.verifier == nil {
			o.verifier = provider.Verifier(&oidc.Config{ClientID: o.config.ClientID})
		}
	}
	o.resolved = true
	return nil
}

func (o *OAuth) httpClientOrDefault() *http.Client {
	if o.httpClient != nil {
		return o.httpClient
	}
	return http.DefaultClient
}

// AuthCodeURL builds the provider redirect for the authorization code flow with PKCE S256.
func (o *OAuth) AuthCodeURL(ctx context.Context, state, nonce, verifier string) (string, error) {
	if err := o.resolve(ctx); err != nil {
		return "", err
	}
	opts := append([]oauth2.AuthCodeOption{
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	}, o.authOpts...)
	return o.config.AuthCodeURL(state, opts...), nil
}

// Authorize exchanges the authorization code and verifies the returned ID token,
// including the nonce issued with the redirect.
func (o *OAuth) Authorize(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.Code == "" {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[OAuth.Authorize] missing code")
	}
	if err := o.resolve(ctx); err != nil {
		return nil, err
	}

	requestedAt := NowTimeFunc()
	tok, err := o.config.Exchange(o.context(ctx), creds.Code, oauth2.VerifierOption(creds.CodeVerifier))
	if err != nil {
		log.Err(err).Str("provider", o.name).Msg("authorization code exchange failed")
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[OAuth.Authorize] exchange")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[OAuth.Authorize] no id_token in response")
	}

	idToken, err := o.verifier.Verify(oidc.ClientContext(ctx, o.httpClientOrDefault()), rawIDToken)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[OAuth.Authorize] verify id_token: %v", err)
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[OAuth.Authorize] claims: %v", err)
	}
	if claims.Nonce != creds.Nonce {
		return nil, errors.Wrapf(errors.ErrInvalidState, "[OAuth.Authorize] nonce mismatch")
	}

	return &Identity{
		User: sessions.User{
			ID:    claims.Sub,
			Email: claims.Email,
			Name:  claims.Name,
		},
		Tokens: sessions.Tokens{
			AccessToken:  tok.AccessToken,
			IDToken:      rawIDToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    refresh.TokenExpiry(tok, requestedAt),
		},
		Provider:     sessions.ProviderOAuth,
		ProviderName: o.name,
	}, nil
}

// Refresher returns a token refresher bound to this provider's client and token endpoint.
func (o *OAuth) Refresher(ctx context.Context, options ...refresh.Option) (*refresh.Refresher, error) {
	tokenURL, err := o.TokenURL(ctx)
	if err != nil {
		return nil, err
	}
	if o.httpClient != nil {
		options = append([]refresh.Option{refresh.WithHTTPClient(o.httpClient)}, options...)
	}
	return refresh.New(o.config.ClientID, o.config.ClientSecret, tokenURL, options...), nil
}
