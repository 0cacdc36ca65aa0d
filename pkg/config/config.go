// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"time"
)

type Server struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"3000"`
}

type Log struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// Exchange configures the forex vendor (open.er-api.com).
type Exchange struct {
	APIBase string `envconfig:"API_BASE" default:"https://open.er-api.com/v6"`
}

// Forex configures caching of forex quotes.
type Forex struct {
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"60s"`
}

// Ars configures the ARS vendors. Provider selects the primary; the other
// vendor becomes the fallback.
type Ars struct {
	Provider    string        `envconfig:"PROVIDER" default:"criptoya"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"45s"`
	CriptoyaURL string        `envconfig:"CRIPTOYA_URL" default:""`
	DolarAPIURL string        `envconfig:"DOLARAPI_URL" default:""`
}

// Provider holds settings shared by all rate adapters.
type Provider struct {
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s"`
}

// OpenAI configures the chat-completions proxy. The API key is never read
// from the environment; callers supply it per request.
type OpenAI struct {
	APIURL          string        `envconfig:"API_URL" default:""`
	InitialTimeout  time.Duration `envconfig:"INITIAL_TIMEOUT" default:"25s"`
	FollowupTimeout time.Duration `envconfig:"FOLLOWUP_TIMEOUT" default:"15s"`
}

// Scan bounds the tool-orchestration loop.
type Scan struct {
	MaxIterations int `envconfig:"MAX_ITERATIONS" default:"5"`
}

type RateLimit struct {
	Max    int           `envconfig:"MAX" default:"100"`
	Window time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Redis selects the optional Redis cache backend. When URL is empty the
// service runs with in-memory caches.
type Redis struct {
	URL       string `envconfig:"URL" default:""`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"conversor:"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	Exchange  *Exchange  `envconfig:"EXCHANGE"`
	Forex     *Forex     `envconfig:"FOREX"`
	Ars       *Ars       `envconfig:"ARS"`
	Provider  *Provider  `envconfig:"PROVIDER"`
	OpenAI    *OpenAI    `envconfig:"OPENAI"`
	Scan      *Scan      `envconfig:"SCAN"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Redis     *Redis     `envconfig:"REDIS"`
}
