package config

import (
	"sort"
	"strings"
)

const corsOriginsVar = "CORS_ALLOWED_ORIGINS"

// Cors lists the storefront UIs allowed to call the gateway with credentials.
type Cors struct{}

var _ CorsConfig = Cors{}

// AllowedOrigins is a set of exact origins ("https://shop.example.com"); "*" admits any origin without cookies.
type AllowedOrigins map[string]struct{}

// ParseAllowedOrigins splits a comma separated origin list, ignoring blanks and trailing slashes.
func ParseAllowedOrigins(raw string) AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = struct{}{}
		}
	}
	return origins
}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

// String is the sorted origin list, for startup logs
func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for origin := range a {
		origins = append(origins, origin)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins defaults to the local UI dev server.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	return ParseAllowedOrigins(GetEnv(corsOriginsVar, "http://localhost:3000"))
}

// GetAllowedMethods covers every method the route table registers.
func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, DELETE"
}

// GetAllowedHeaders admits the JSON and multipart bodies the UI sends.
func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Accept, Accept-Language"
}
