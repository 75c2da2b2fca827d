package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	AuthConfig
	BackendConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type BackendConfig interface {
	GetRedReportURL() string
	GetSiteID() string
	GetSlackWebhook() string
	GetBackendTimeout() time.Duration
	GetCatalogueCacheTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Auth
	Backend
	Session
}

func New() Config {
	return mainConfig{}
}
