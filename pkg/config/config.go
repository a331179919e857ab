package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	PublicBaseURL  string `mapstructure:"PUBLIC_BASE_URL"`

	GenAIAPIKey             string `mapstructure:"GENAI_API_KEY"`
	GenAIModel              string `mapstructure:"GENAI_MODEL"`
	GenerationTimeoutSecond int    `mapstructure:"GENERATION_TIMEOUT_SECONDS"`

	FetchMode          string  `mapstructure:"FETCH_MODE"`
	FetchTimeoutSecond int     `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	FetchMaxRedirects  int     `mapstructure:"FETCH_MAX_REDIRECTS"`
	FetchMaxBytes      int64   `mapstructure:"FETCH_MAX_BYTES"`
	FetchRatePerSecond float64 `mapstructure:"FETCH_RATE_PER_SECOND"`

	CacheTTLMinutes           int `mapstructure:"CACHE_TTL_MINUTES"`
	CacheSweepIntervalMinutes int `mapstructure:"CACHE_SWEEP_INTERVAL_MINUTES"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`
}

var defaults = map[string]any{
	"SERVER_PORT":                  "8080",
	"LOG_LEVEL":                    "info",
	"ALLOWED_ORIGINS":              "*",
	"PUBLIC_BASE_URL":              "http://localhost:8080",
	"GENAI_API_KEY":                "",
	"GENAI_MODEL":                  "gemini-2.0-flash",
	"GENERATION_TIMEOUT_SECONDS":   30,
	"FETCH_MODE":                   "http",
	"FETCH_TIMEOUT_SECONDS":        10,
	"FETCH_MAX_REDIRECTS":          5,
	"FETCH_MAX_BYTES":              2 << 20,
	"FETCH_RATE_PER_SECOND":        5.0,
	"CACHE_TTL_MINUTES":            15,
	"CACHE_SWEEP_INTERVAL_MINUTES": 30,
	"REDIS_ADDR":                   "",
	"REDIS_PASSWORD":               "",
	"REDIS_DB":                     0,
	"POSTGRES_URL":                 "",
}

// Load reads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads configuration from the env-format file at path, if present,
// and environment variables, which take precedence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	_ = v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")
	_ = v.BindEnv("GENAI_API_KEY", "GENAI_API_KEY", "GEMINI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins returns the allowed CORS origins.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// GenerationEnabled reports whether an external text-generation service is configured.
func (c *Config) GenerationEnabled() bool {
	return strings.TrimSpace(c.GenAIAPIKey) != ""
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecond) * time.Second
}

func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSecond) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Config) CacheSweepInterval() time.Duration {
	return time.Duration(c.CacheSweepIntervalMinutes) * time.Minute
}
