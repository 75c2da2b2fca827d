package config

import (
	"strings"
	"time"
)

type AuthConfig interface {
	GetSessionSecret() string
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetKeycloakClientID() string
	GetKeycloakClientSecret() string
	GetKeycloakRealm() string
	GetAuthRateLimit() int
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetSessionSecret is the secret session cookies are signed with.
func (Auth) GetSessionSecret() string {
	return GetEnv("NEXTAUTH_SECRET", "")
}

func (Auth) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Auth) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Auth) GetKeycloakClientID() string {
	return GetEnv("KEYCLOAK_CLIENT_ID", "")
}

func (Auth) GetKeycloakClientSecret() string {
	return GetEnv("KEYCLOAK_CLIENT_SECRET", "")
}

// GetKeycloakRealm returns the realm URL, e.g. https://sso.example.com/realms/shop
func (Auth) GetKeycloakRealm() string {
	return strings.TrimSuffix(GetEnv("KEYCLOAK_REALM", ""), "/")
}

// GetAuthRateLimit is the number of /auth requests allowed per IP per minute
func (Auth) GetAuthRateLimit() int {
	return 30
}

type SessionConfig interface {
	GetMaxSessionAge() time.Duration
	GetAnonymousIDMaxAge() time.Duration
	GetRedisURL() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetMaxSessionAge() time.Duration {
	return GetDuration("SESSION_MAX_AGE", 30*24*time.Hour) // 30 days
}

func (Session) GetAnonymousIDMaxAge() time.Duration {
	return 400 * 24 * time.Hour // browsers cap cookie lifetime at ~400 days
}

// GetRedisURL selects the Redis session store when set, e.g. redis://localhost:6379/0
func (Session) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}
