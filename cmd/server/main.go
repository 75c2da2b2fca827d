package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/did-storefront/actions"
	"github.com/jrsteele09/did-storefront/auth"
	"github.com/jrsteele09/did-storefront/internal/config"
	"github.com/jrsteele09/did-storefront/notify"
	"github.com/jrsteele09/did-storefront/providers"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/server"
	"github.com/jrsteele09/did-storefront/server/authflowrepo"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/jrsteele09/did-storefront/sessions/redisrepo"
	"github.com/jrsteele09/did-storefront/token/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const janitorInterval = time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	for {
		if err := run(); err != nil {
			log.Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())
	log.Info().Str("origins", c.GetAllowedOrigins().String()).Msg("CORS allowed origins")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionRepo, err := newSessionRepo(ctx, c)
	if err != nil {
		return err
	}
	set, refreshers := newProviders(c)
	sessionService := auth.NewSessionService(set, sessionRepo,
		append(refreshers, auth.WithMaxSessionAge(c.GetMaxSessionAge()))...)

	slack := notify.NewSlack(c.GetSlackWebhook())
	backend := redreport.New(c.GetRedReportURL(),
		redreport.WithSiteID(c.GetSiteID()),
		redreport.WithTimeout(c.GetBackendTimeout()),
	)
	dataActions := actions.New(backend,
		actions.WithNotifier(slack),
		actions.WithCatalogueTTL(c.GetCatalogueCacheTTL()),
	)

	handler, err := server.New(c, sessionService, dataActions, authflowrepo.NewInMemoryRepo(), server.WithNotifier(slack))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	go janitor(ctx, sessionService, handler)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := listenAndServe(httpServer); err != nil {
			log.Err(err).Msg("server stopped listening")
		}
	}()
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func newSessionRepo(ctx context.Context, c config.Config) (sessions.Repo, error) {
	if c.GetRedisURL() == "" {
		log.Info().Msg("using in-memory session store")
		return sessions.NewInMemoryRepo(), nil
	}
	client, err := redisrepo.NewClient(ctx, c.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Info().Msg("using redis session store")
	return redisrepo.New(client), nil
}

// newProviders registers the always-on providers plus every OAuth provider that has a client id
func newProviders(c config.Config) (*providers.Set, []auth.SessionServiceOption) {
	set := providers.NewSet(providers.Anonymous{}, providers.CredentialsProvider{})
	var options []auth.SessionServiceOption

	if id := c.GetKeycloakClientID(); id != "" && c.GetKeycloakRealm() != "" {
		secret := c.GetKeycloakClientSecret()
		set.Register(providers.NewKeycloak(c.GetKeycloakRealm(), id, secret, c.GetBaseURL()))
		options = append(options, auth.WithRefresher(providers.KeycloakName,
			refresh.NewKeycloakRefresher(c.GetKeycloakRealm(), id, secret)))
	}
	if id := c.GetGoogleClientID(); id != "" {
		secret := c.GetGoogleClientSecret()
		set.Register(providers.NewGoogle(id, secret, c.GetBaseURL()))
		options = append(options, auth.WithRefresher(providers.GoogleName,
			refresh.NewGoogleRefresher(id, secret)))
	}
	log.Info().Strs("providers", set.Names()).Msg("sign-in providers")
	return set, options
}

// janitor drops expired sessions and abandoned sign-in redirects
func janitor(ctx context.Context, sessionService *auth.SessionService, s *server.Server) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessionService.PurgeExpired(ctx); err != nil {
				log.Err(err).Msg("failed to purge expired sessions")
			}
			if err := s.PurgeAuthFlows(); err != nil {
				log.Err(err).Msg("failed to purge auth flows")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
