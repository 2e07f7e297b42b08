package config

import (
	"os"
	"strings"
)

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins parses ALLOWED_ORIGINS (comma separated). The default
// is the wildcard origin so the SPA dev server can talk to the API.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		raw = "*"
	}
	origins := make(AllowedOrigins)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
