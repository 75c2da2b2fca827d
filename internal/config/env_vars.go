package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	baseURLVar    = "BASE_URL"
	redReportVar  = "REDREPORT_URL"
	siteIDVar     = "SITE_ID"
	slackHookVar  = "SLACK_WEBHOOK"
	backendTOVar  = "BACKEND_TIMEOUT"
	catalogTTLVar = "CATALOGUE_CACHE_TTL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "DID Storefront")
}

// GetBaseURL returns the public URL of the storefront (e.g., "https://shop.example.com").
// OAuth redirect URIs are built from it.
func (EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(GetEnv(baseURLVar, "http://localhost:8080"), "/")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetRedReportURL() string {
	return strings.TrimSuffix(GetEnv(redReportVar, "http://localhost:9000"), "/")
}

func (Backend) GetSiteID() string {
	return GetEnv(siteIDVar, "")
}

func (Backend) GetSlackWebhook() string {
	return GetEnv(slackHookVar, "")
}

func (Backend) GetBackendTimeout() time.Duration {
	return GetDuration(backendTOVar, 15*time.Second)
}

// GetCatalogueCacheTTL is how long public catalogue lookups stay memoized
func (Backend) GetCatalogueCacheTTL() time.Duration {
	return GetDuration(catalogTTLVar, 5*time.Minute)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDuration parses a Go duration string, falling back to defaultValue when unset or invalid.
func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
