package config

import (
	"strconv"
	"time"
)

type AuthConfig interface {
	GetTokenSigningKey() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetTokenSigningKey returns the HMAC key used to sign access tokens.
// The default is only suitable for local development.
func (Auth) GetTokenSigningKey() string {
	return GetEnv("SECRET_KEY", "unsafe-dev-key")
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRY_MINUTES", time.Minute, 60)
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_EXPIRY_DAYS", 24*time.Hour, 7)
}

func (Auth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func durationEnv(envVar string, unit time.Duration, defaultValue int) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return time.Duration(defaultValue) * unit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return time.Duration(defaultValue) * unit
	}
	return time.Duration(n) * unit
}
