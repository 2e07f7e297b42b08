package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	CorsConfig
	AuthConfig
}

type mainConfig struct {
	EnvVars
	Cors
	Auth
}

// New loads a .env file if one is present and returns the composed
// environment-backed configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
