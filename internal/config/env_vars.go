package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	baseURLVar  = "BASE_URL"
	databaseVar = "DATABASE_URL"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetDatabaseURL() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8000")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Task Manager")
}

// GetBaseURL returns the externally visible base URL of the API, used by
// clients and logged at startup.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8000")
}

// GetDatabaseURL returns the Postgres connection string. An empty value
// means the server runs with in-memory stores.
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
