package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env is the environment-variable layer. The OPENAI_* names are kept for
// compatibility with existing deployments of the browser client.
type Env struct {
	Addr         string  `env:"CHATRELAY_ADDR" envDefault:":8080"`
	UpstreamHost string  `env:"OPENAI_API_HOST" envDefault:"https://api.groq.com/openai"`
	APIKey       string  `env:"OPENAI_API_KEY"`
	DefaultModel string  `env:"DEFAULT_MODEL" envDefault:"llama3-8b-8192"`
	SystemPrompt string  `env:"DEFAULT_SYSTEM_PROMPT"`
	Temperature  float64 `env:"DEFAULT_TEMPERATURE" envDefault:"1"`
	DBPath       string  `env:"CHATRELAY_DB" envDefault:"~/.chatrelay/chatrelay.db"`
	MaxBodyBytes int64   `env:"CHATRELAY_MAX_BODY_BYTES" envDefault:"1048576"`
	CORSEnabled  bool    `env:"CHATRELAY_CORS_ENABLED" envDefault:"true"`
	CORSOrigins  string  `env:"CHATRELAY_CORS_ORIGINS" envDefault:"*"`
	LogLevel     string  `env:"CHATRELAY_LOG_LEVEL" envDefault:"info"`
}

// LoadEnv reads a .env file when present, then parses the environment.
func LoadEnv() (Env, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// Merge overlays file values onto the environment layer. File values win only
// where they are set; this keeps the precedence flags > file > env > defaults
// resolvable in main.
func Merge(e Env, f Config) Env {
	if f.Addr != "" {
		e.Addr = f.Addr
	}
	if f.UpstreamHost != "" {
		e.UpstreamHost = f.UpstreamHost
	}
	if f.APIKey != "" {
		e.APIKey = f.APIKey
	}
	if f.DefaultModel != "" {
		e.DefaultModel = f.DefaultModel
	}
	if f.SystemPrompt != "" {
		e.SystemPrompt = f.SystemPrompt
	}
	if f.Temperature != 0 {
		e.Temperature = f.Temperature
	}
	if f.DBPath != "" {
		e.DBPath = f.DBPath
	}
	if f.MaxBodyBytes != 0 {
		e.MaxBodyBytes = f.MaxBodyBytes
	}
	if f.CORSOrigins != "" {
		e.CORSOrigins = f.CORSOrigins
	}
	if f.CORSEnabled != nil {
		e.CORSEnabled = *f.CORSEnabled
	}
	if f.LogLevel != "" {
		e.LogLevel = f.LogLevel
	}
	return e
}
