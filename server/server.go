package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/jrsteele09/did-storefront/actions"
	"github.com/jrsteele09/did-storefront/auth"
	"github.com/jrsteele09/did-storefront/internal/config"
	"github.com/jrsteele09/did-storefront/notify"
	"github.com/jrsteele09/did-storefront/server/authflowrepo"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/rs/zerolog/log"
)

// authFlowTTL bounds how long a user may take at the identity provider
const authFlowTTL = 10 * time.Minute

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	sessions  *auth.SessionService
	actions   *actions.Actions
	authFlows authflowrepo.Repo
	notifier  notify.Notifier
	cookies   *sessions.CookieCodec
	nowTime   func() time.Time

	authLimiter func(http.Handler) http.Handler
}

type Option func(*Server)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Server) {
		s.notifier = n
	}
}

func New(c config.Config, sessionService *auth.SessionService, dataActions *actions.Actions, authFlows authflowrepo.Repo, options ...Option) (*Server, error) {
	s := &Server{
		env:       c.GetEnv(),
		mux:       http.NewServeMux(),
		config:    c,
		sessions:  sessionService,
		actions:   dataActions,
		authFlows: authFlows,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	cookies, err := sessions.NewCookieCodec(c.GetSessionSecret(), s.nowTime)
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.cookies = cookies
	s.authLimiter = httprate.LimitByIP(c.GetAuthRateLimit(), time.Minute)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// PurgeAuthFlows drops sign-in redirects that were never completed
func (s *Server) PurgeAuthFlows() error {
	return s.authFlows.DeleteOlderThan(s.nowTime().Add(-authFlowTTL))
}

const (
	green      = "\033[32m"
	blue       = "\033[34m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	magenta    = "\033[35m"
	gray       = "\033[90m"
	resetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    green,
	"POST":   blue,
	"PUT":    cyan,
	"DELETE": yellow,
	"PATCH":  magenta,
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		if method, path, ok := strings.Cut(route, " "); ok {
			logRoute(method, path)
		} else {
			logRoute("", route)
		}
	}
}

func logRoute(method, path string) {
	color, ok := methodColors[method]
	if !ok {
		color = gray
	}
	log.Info().Msgf("[%s %-7s%s] %s", color, method, resetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
