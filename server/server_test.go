package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/did-storefront/actions"
	"github.com/jrsteele09/did-storefront/auth"
	"github.com/jrsteele09/did-storefront/identity"
	"github.com/jrsteele09/did-storefront/internal/config"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/providers"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/server"
	"github.com/jrsteele09/did-storefront/server/authflowrepo"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	config.Config
}

func (testConfig) GetEnv() string           { return "TEST" }
func (testConfig) GetSessionSecret() string { return "test-session-secret" }
func (testConfig) GetBaseURL() string       { return "http://shop.test" }

// passwordProvider signs in any user whose password is "secret"
type passwordProvider struct{}

func (passwordProvider) Name() string                { return "password" }
func (passwordProvider) Kind() sessions.ProviderKind { return sessions.ProviderCredentials }
func (passwordProvider) Authorize(_ context.Context, creds providers.Credentials) (*providers.Identity, error) {
	if creds.Password != "secret" {
		return nil, errors.ErrInvalidCredentials
	}
	return &providers.Identity{
		User:         sessions.User{ID: "user-1", Email: creds.Username},
		Tokens:       sessions.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"},
		Provider:     sessions.ProviderCredentials,
		ProviderName: "password",
	}, nil
}

// ssoProvider is a redirect provider that accepts the code "good"
type ssoProvider struct{}

func (ssoProvider) Name() string                { return "sso" }
func (ssoProvider) Kind() sessions.ProviderKind { return sessions.ProviderOAuth }
func (ssoProvider) AuthCodeURL(_ context.Context, state, nonce, verifier string) (string, error) {
	return "https://idp.test/authorize?" + url.Values{"state": {state}, "nonce": {nonce}}.Encode(), nil
}
func (ssoProvider) Authorize(_ context.Context, creds providers.Credentials) (*providers.Identity, error) {
	if creds.Code != "good" || creds.CodeVerifier == "" || creds.Nonce == "" {
		return nil, errors.ErrInvalidCredentials
	}
	return &providers.Identity{
		User:         sessions.User{ID: "sso-user"},
		Tokens:       sessions.Tokens{AccessToken: "sso-access"},
		Provider:     sessions.ProviderOAuth,
		ProviderName: "sso",
	}, nil
}

type chanNotifier chan string

func (c chanNotifier) Notify(_ context.Context, text string) error {
	c <- text
	return nil
}

type testEnv struct {
	server       *httptest.Server
	client       *http.Client
	backendCalls *atomic.Int32
}

// newTestEnv starts the gateway in front of a backend that echoes the caller headers
func newTestEnv(t *testing.T, notifier chanNotifier) *testEnv {
	t.Helper()
	calls := &atomic.Int32{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"path":          r.URL.Path,
			"authorization": r.Header.Get("Authorization"),
			"uid":           r.Header.Get(redreport.HeaderUID),
		})
	}))
	t.Cleanup(backend.Close)

	set := providers.NewSet(providers.Anonymous{}, passwordProvider{}, ssoProvider{})
	sessionService := auth.NewSessionService(set, sessions.NewInMemoryRepo())
	var actionOptions []actions.Option
	var serverOptions []server.Option
	if notifier != nil {
		actionOptions = append(actionOptions, actions.WithNotifier(notifier))
		serverOptions = append(serverOptions, server.WithNotifier(notifier))
	}
	dataActions := actions.New(redreport.New(backend.URL), actionOptions...)

	s, err := server.New(testConfig{Config: config.New()}, sessionService, dataActions, authflowrepo.NewInMemoryRepo(), serverOptions...)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: ts, client: client, backendCalls: calls}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func (e *testEnv) sessionView(t *testing.T) map[string]interface{} {
	t.Helper()
	resp, body := e.do(t, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	return view
}

func TestServer_UnauthenticatedReadReturnsNull(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `null`, body)
	require.Zero(t, env.backendCalls.Load())

	var anonymousCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == identity.CookieName(identity.StorageKey) {
			anonymousCookie = c
		}
	}
	require.NotNil(t, anonymousCookie, "anonymous id cookie should be assigned on first visit")
}

func TestServer_UnauthenticatedMutationIs401(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPut, "/api/profile", `{"name":"Ada","email":"ada@example.com"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":{"status":401,"message":"not_authenticated"}}`, body)
	require.Zero(t, env.backendCalls.Load())
}

func TestServer_UnauthenticatedMutationSkipsBody(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, route := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/payments", ""},
		{http.MethodPut, "/api/profile", ""},
		{http.MethodPost, "/api/numbers/did-1/buy", ""},
		{http.MethodPost, "/api/ivr", "{not json"},
		{http.MethodPut, "/api/numbers/did-1/routing", "{not json"},
		{http.MethodPost, "/api/purchase/waiting", ""},
		{http.MethodPost, "/api/uploads", ""},
	} {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			resp, body := env.do(t, route.method, route.path, route.body)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.JSONEq(t, `{"error":{"status":401,"message":"not_authenticated"}}`, body)
		})
	}
	require.Zero(t, env.backendCalls.Load())
}

func TestServer_AnonymousCartUsesAnonymousID(t *testing.T) {
	env := newTestEnv(t, nil)
	anonymousID := env.sessionView(t)["anonymousId"].(string)
	require.True(t, identity.Valid(anonymousID))

	resp, body := env.do(t, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var echoed map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &echoed))
	require.Equal(t, anonymousID, echoed["uid"])
	require.Empty(t, echoed["authorization"])
	require.EqualValues(t, 1, env.backendCalls.Load())
}

func TestServer_CredentialsSignIn(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("wrong password", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/auth/signin/password", `{"username":"ada@example.com","password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t, `{"error":{"status":401,"message":"invalid_credentials"}}`, body)
	})

	t.Run("signed in reads carry the bearer token", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/auth/signin/password", `{"username":"ada@example.com","password":"secret"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		view := env.sessionView(t)
		require.Equal(t, "authenticated", view["status"])
		require.Equal(t, "password", view["provider"])

		resp, body := env.do(t, http.MethodGet, "/api/profile", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var echoed map[string]string
		require.NoError(t, json.Unmarshal([]byte(body), &echoed))
		require.Equal(t, "/profile", echoed["path"])
		require.Equal(t, "Bearer access-1", echoed["authorization"])
		require.Equal(t, view["anonymousId"], echoed["uid"])
	})
}

func TestServer_AnonymousSignInStaysUnauthenticated(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/auth/signin/anonymous", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"status":"unauthenticated"`)

	resp, _ = env.do(t, http.MethodPut, "/api/profile", `{"name":"Ada"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_SignOutRotatesAnonymousID(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, http.MethodPost, "/auth/signin/password", `{"username":"ada@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before := env.sessionView(t)["anonymousId"]

	resp, _ = env.do(t, http.MethodPost, "/auth/signout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after := env.sessionView(t)
	require.Equal(t, "unauthenticated", after["status"])
	require.NotEqual(t, before, after["anonymousId"])
	require.True(t, identity.Valid(after["anonymousId"].(string)))
}

func TestServer_OAuthRedirectFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/auth/signin/sso?callbackUrl=/cart", "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "idp.test", location.Host)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	require.NotEmpty(t, location.Query().Get("nonce"))

	t.Run("state mismatch", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/auth/callback/sso?code=good&state=forged", "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	// the mismatch above cleared the state cookie, start over
	resp, _ = env.do(t, http.MethodGet, "/auth/signin/sso?callbackUrl=/cart", "")
	location, err = url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state = location.Query().Get("state")

	resp, _ = env.do(t, http.MethodGet, "/auth/callback/sso?code=good&state="+url.QueryEscape(state), "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/cart", resp.Header.Get("Location"))

	view := env.sessionView(t)
	require.Equal(t, "authenticated", view["status"])
	require.Equal(t, "sso", view["provider"])

	// single use state
	resp, _ = env.do(t, http.MethodGet, "/auth/callback/sso?code=good&state="+url.QueryEscape(state), "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SignInRouting(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/auth/signin/unknown", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/auth/signin/sso", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/auth/signin/password", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/auth/providers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &views))
	require.Len(t, views, 3)
	require.Equal(t, "http://shop.test/auth/callback/sso", views["sso"]["callbackUrl"])
	require.Empty(t, views["password"]["callbackUrl"])
}

func TestServer_RefreshRequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":{"status":401,"message":"not_authenticated"}}`, body)
}

func TestServer_RefreshWithoutRefresherEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, http.MethodPost, "/auth/signin/password", `{"username":"ada@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":{"status":401,"message":"refresh_failed"}}`, body)
	require.Equal(t, "unauthenticated", env.sessionView(t)["status"])
}

func TestServer_CorsPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req.Header.Set("Origin", "https://evil.test")
	resp, err = env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Validate(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/validate/signup",
		`{"signupEmail":"ada@example.com","signupPhone":"+442071838750","signupPassword":"password1","signupConfirmPassword":"password2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"valid":false,"errors":{"signupConfirmPassword":"passwords_mismatch"}}`, body)

	resp, body = env.do(t, http.MethodPost, "/api/validate/signin", `{"signinEmail":"ada@example.com","signinPassword":"password1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"valid":true}`, body)

	resp, _ = env.do(t, http.MethodPost, "/api/validate/nope", `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Contact(t *testing.T) {
	notifications := make(chanNotifier, 1)
	env := newTestEnv(t, notifications)

	resp, body := env.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"not-an-email","subject":"Hi","message":"Hello"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, `"email":"invalid_email"`)

	resp, _ = env.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","subject":"Porting","message":"Can I port my number?"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case text := <-notifications:
		require.Contains(t, text, "Porting")
		require.Contains(t, text, "ada@example.com")
	case <-time.After(2 * time.Second):
		t.Fatal("contact message was not sent")
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)

	env.do(t, http.MethodGet, "/api/numbers", "")
	resp, body = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "storefront_http_requests_total")
}

func TestServer_FrameSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, http.MethodGet, "/api/numbers", "")
	require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
